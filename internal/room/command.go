package room

import (
	"errors"

	"agora/internal/auction"
	"agora/internal/common"
	"agora/internal/engine"
)

var (
	ErrRoomClosed       = errors.New("room closed")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnsupported      = errors.New("operation not supported by this auction")
	ErrNotAdmin         = errors.New("only the room admin may do this")
	ErrNotFinished      = errors.New("auction has not finished")
)

type Operation string

const (
	OpRegister    Operation = "register"
	OpLeave       Operation = "leave"
	OpConfigure   Operation = "configure"
	OpBid         Operation = "bid"
	OpAsk         Operation = "ask"
	OpCancel      Operation = "cancel"
	OpUpdateOffer Operation = "update_offer"
	OpClose       Operation = "close"
	OpStatus      Operation = "status"
)

// Command is one already-parsed instruction from a participant. Args come
// from an untrusted client and are parsed defensively.
type Command struct {
	Caller string
	Op     Operation
	Args   map[string]any
}

// Result tells the transport whether to broadcast, and what.
type Result struct {
	StateChanged bool             `json:"state_changed"`
	Reason       string           `json:"reason,omitempty"`
	Fields       auction.Snapshot `json:"fields"`
}

// reason turns a rejection into a short, stable code for clients.
func reason(err error) string {
	switch {
	case errors.Is(err, auction.ErrMalformedAmount),
		errors.Is(err, auction.ErrUnknownKind),
		errors.Is(err, common.ErrUnknownOrderKind):
		return "malformed"
	case errors.Is(err, auction.ErrIneligible), errors.Is(err, ErrNotAdmin):
		return "ineligible"
	case errors.Is(err, auction.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, auction.ErrAuctionClosed):
		return "closed"
	case errors.Is(err, ErrNotFinished):
		return "not_finished"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	case errors.Is(err, engine.ErrInvalidQuantity), errors.Is(err, engine.ErrInvalidPrice):
		return "invalid_order"
	case errors.Is(err, engine.ErrWouldCross):
		return "would_cross"
	}
	return "rejected"
}
