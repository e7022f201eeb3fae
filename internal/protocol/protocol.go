package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello   = "HELLO"
	TypeWelcome = "WELCOME"
	TypeCmd     = "CMD"
	TypeAck     = "ACK"
	TypeState   = "STATE"
)

// Command names carried in CmdMsg.Cmd. START_DAY loads a day's orders and
// starts a fresh round.
const (
	CmdSpawn    = "SPAWN"
	CmdCut      = "CUT"
	CmdDeposit  = "DEPOSIT"
	CmdDiscard  = "DISCARD"
	CmdPin      = "PIN"
	CmdStartDay = "START_DAY"
)

// Client roles. Observers only receive STATE; inputs may also send CMD.
const (
	RoleInput    = "INPUT"
	RoleObserver = "OBSERVER"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
