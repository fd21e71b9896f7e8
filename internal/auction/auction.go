package auction

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"agora/internal/common"
	"agora/internal/engine"
)

var (
	ErrMalformedAmount   = errors.New("malformed amount")
	ErrIneligible        = errors.New("caller may not perform this action")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAuctionClosed     = errors.New("auction is closed")
	ErrUnknownKind       = errors.New("unknown auction kind")
)

type Kind int

const (
	Dutch Kind = iota
	English
	FirstPriceSealedBid
	SecondPriceSealedBid
	ContinuousDouble
)

var kindNames = map[Kind]string{
	Dutch:                "dutch",
	English:              "english",
	FirstPriceSealedBid:  "fpsb",
	SecondPriceSealedBid: "spsb",
	ContinuousDouble:     "cda",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DefaultTimer is the deadline used by a kind when none is configured.
func (k Kind) DefaultTimer() time.Duration {
	switch k {
	case English:
		return 30 * time.Second
	case FirstPriceSealedBid, SecondPriceSealedBid:
		return 90 * time.Second
	}
	return 0
}

type Options struct {
	// Timer is the bidding window: the soft-close extension for English
	// auctions and the total duration of sealed-bid auctions.
	Timer time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	// StrictBook validates the order book after every change.
	StrictBook bool
}

func (o Options) withDefaults(kind Kind) Options {
	if o.Timer <= 0 {
		o.Timer = kind.DefaultTimer()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Mechanism is one of the five auction state machines. The set is closed:
// callers dispatch on the concrete type.
type Mechanism interface {
	Kind() Kind
	Ledger() *Ledger
	// Snapshot returns the fields to publish after a state change.
	Snapshot() Snapshot
	mechanism()
}

// New creates a fresh mechanism of the given kind over an existing ledger.
func New(kind Kind, ledger *Ledger, opts Options) (Mechanism, error) {
	switch kind {
	case Dutch:
		return NewDutch(ledger, opts), nil
	case English:
		return NewEnglish(ledger, opts), nil
	case FirstPriceSealedBid:
		return NewFirstPrice(ledger, opts), nil
	case SecondPriceSealedBid:
		return NewSecondPrice(ledger, opts), nil
	case ContinuousDouble:
		return NewCDA(ledger, opts), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

// Bid is one entry of an auction's bid history.
type Bid struct {
	Bidder     string    `json:"bidder"`
	Amount     int64     `json:"amount"`
	LimitPrice int64     `json:"limit_price"`
	Time       time.Time `json:"time"`
}

// Snapshot is the publishable state of a mechanism. Unset fields are omitted
// on the wire.
type Snapshot struct {
	Kind      string           `json:"kind"`
	Price     *int64           `json:"price,omitempty"`
	Leader    string           `json:"leader,omitempty"`
	Profits   map[string]int64 `json:"profits,omitempty"`
	Bids      []Bid            `json:"bids,omitempty"`
	Trades    []common.Trade   `json:"trades,omitempty"`
	Countdown *int64           `json:"countdown,omitempty"` // whole seconds left
	Finished  bool             `json:"finished,omitempty"`
	BestBid   *int64           `json:"best_bid,omitempty"`
	BestAsk   *int64           `json:"best_ask,omitempty"`
	BidDepth  []engine.Depth   `json:"bid_depth,omitempty"`
	AskDepth  []engine.Depth   `json:"ask_depth,omitempty"`
	OrderID   *uint64          `json:"order_id,omitempty"`
}

func countdown(deadline, now time.Time) *int64 {
	left := int64(math.Ceil(deadline.Sub(now).Seconds()))
	return ptr(max(left, 0))
}

func ptr[T any](v T) *T {
	return &v
}

// ParseAmount reads an integral amount from an untrusted argument: a string,
// a JSON number or a Go integer. Fractional and non-numeric values are
// rejected.
func ParseAmount(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows", ErrMalformedAmount, x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) || math.Abs(x) >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrMalformedAmount, x)
		}
		return int64(x), nil
	case string:
		return parseAmountString(x)
	case fmt.Stringer:
		// json.Number and friends.
		return parseAmountString(x.String())
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrMalformedAmount)
	}
	return 0, fmt.Errorf("%w: unsupported type %T", ErrMalformedAmount, v)
}

func parseAmountString(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	return n, nil
}

// ParseQuantity is ParseAmount for order sizes, which are never negative.
func ParseQuantity(v any) (uint64, error) {
	n, err := ParseAmount(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative quantity %d", ErrMalformedAmount, n)
	}
	return uint64(n), nil
}
