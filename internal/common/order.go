package common

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownOrderKind = errors.New("unknown order kind")

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

type OrderKind int

const (
	// Limit orders match while marketable and rest any remainder in the
	// book.
	Limit OrderKind = iota
	// FillAndKill orders match while marketable and discard any remainder.
	FillAndKill
	// Market orders ignore their price and sweep the opposing side until
	// filled or the side is empty. They never rest.
	Market
	// ImmediateOrCancel behaves exactly as FillAndKill.
	ImmediateOrCancel
	// PostOnly orders are rejected if they would trade on arrival,
	// otherwise they rest like a Limit order.
	PostOnly
)

var orderKindNames = map[OrderKind]string{
	Limit:             "limit",
	FillAndKill:       "fill_and_kill",
	Market:            "market",
	ImmediateOrCancel: "immediate_or_cancel",
	PostOnly:          "post_only",
}

func (k OrderKind) String() string {
	if name, ok := orderKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OrderKind(%d)", int(k))
}

// Valid reports whether k is one of the declared order kinds.
func (k OrderKind) Valid() bool {
	_, ok := orderKindNames[k]
	return ok
}

// Rests reports whether an unfilled remainder of this kind stays in the book.
func (k OrderKind) Rests() bool {
	return k == Limit || k == PostOnly
}

// ParseOrderKind accepts the lower or upper case name of a kind. An empty
// string is a Limit order.
func ParseOrderKind(s string) (OrderKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Limit, nil
	}
	for kind, name := range orderKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOrderKind, s)
}
