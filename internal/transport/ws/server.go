package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"slicehouse.ai/internal/protocol"
	"slicehouse.ai/internal/sim/shop"
)

// Server speaks the input protocol: HELLO/WELCOME, then CMD in and ACK plus
// STATE out.
type Server struct {
	shop     *shop.Shop
	catalogs protocol.CatalogDigests
	log      *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(sh *shop.Shop, digests protocol.CatalogDigests, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{
		shop:     sh,
		catalogs: digests,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

type session struct {
	id   string
	role string
	acks chan protocol.AckMsg
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		subID, states := s.shop.Subscribe()
		defer s.shop.Unsubscribe(subID)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case a := <-sess.acks:
					if err := writeJSON(conn, a); err != nil {
						cancel()
						return
					}
				case b := <-states:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeCmd {
				continue
			}
			var cmd protocol.CmdMsg
			if err := json.Unmarshal(msg, &cmd); err != nil {
				s.reject(sess, "", protocol.ErrProtoBadRequest, "bad CMD")
				continue
			}
			if cmd.ProtocolVersion != protocol.Version {
				s.reject(sess, cmd.CmdID, protocol.ErrProtoBadRequest, "bad protocol_version")
				continue
			}
			if sess.role == protocol.RoleObserver {
				s.reject(sess, cmd.CmdID, protocol.ErrForbidden, "observer sessions are read-only")
				continue
			}
			select {
			case s.shop.Inbox() <- shop.CommandEnvelope{Cmd: cmd, Resp: sess.acks}:
			default:
				s.reject(sess, cmd.CmdID, protocol.ErrBusy, "shop busy")
			}
		}
		s.log.Printf("session %s closed", sess.id)
	}
}

func (s *Server) reject(sess *session, cmdID, code, msg string) {
	a := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          cmdID,
		Code:            code,
		Message:         msg,
		Tick:            s.shop.CurrentTick(),
	}
	select {
	case sess.acks <- a:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	role := strings.ToUpper(strings.TrimSpace(hello.Role))
	if role != protocol.RoleObserver {
		role = protocol.RoleInput
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}

	sess := &session{
		id:   fmt.Sprintf("S%d", s.nextID.Add(1)),
		role: role,
		acks: make(chan protocol.AckMsg, maxQ),
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		Role:            role,
		ShopID:          s.shop.ID(),
		TickRateHz:      s.shop.TickRateHz(),
		Catalogs:        s.catalogs,
		State:           s.shop.State(),
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil
	}
	s.log.Printf("session %s joined as %s (client=%q)", sess.id, role, hello.ClientName)
	return sess
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
