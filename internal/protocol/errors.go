package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Shop routing/state.
	ErrBusy      = "E_BUSY"
	ErrForbidden = "E_FORBIDDEN"

	// Command layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownBody   = "E_UNKNOWN_BODY"
	ErrUnknownOrder  = "E_UNKNOWN_ORDER"
	ErrNoSlot        = "E_NO_SLOT"
	ErrAlreadyPinned = "E_ALREADY_PINNED"
	ErrNotWaiting    = "E_NOT_WAITING"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBusy:            {},
	ErrForbidden:       {},
	ErrBadRequest:      {},
	ErrUnknownBody:     {},
	ErrUnknownOrder:    {},
	ErrNoSlot:          {},
	ErrAlreadyPinned:   {},
	ErrNotWaiting:      {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
