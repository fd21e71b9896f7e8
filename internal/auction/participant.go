package auction

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
)

var ErrUnknownDistribution = errors.New("unknown distribution")

// Participant is one entrant's ledger entry. The limit price is the
// participant's private valuation of the item and never changes.
type Participant struct {
	Username   string `json:"username"`
	Money      int64  `json:"money"`
	LimitPrice int64  `json:"limit_price"`
	Profits    int64  `json:"profits"`
}

// Sampler draws one value, used to seed a participant's valuation and cash.
type Sampler interface {
	Sample(r *rand.Rand) int64
}

// Fixed always samples the same value.
type Fixed int64

func (f Fixed) Sample(*rand.Rand) int64 { return int64(f) }

type Distribution int

const (
	Uniform Distribution = iota
	Normal
)

func (d Distribution) String() string {
	switch d {
	case Uniform:
		return "uniform"
	case Normal:
		return "normal"
	}
	return fmt.Sprintf("Distribution(%d)", int(d))
}

func ParseDistribution(s string) (Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return Uniform, nil
	case "normal":
		return Normal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDistribution, s)
}

// Valuation samples private valuations from [Min, Max]. A normal valuation is
// centred on the middle of the range with the range spanning six standard
// deviations, clamped to the range.
type Valuation struct {
	Distribution Distribution
	Min          int64
	Max          int64
}

func (v Valuation) Sample(r *rand.Rand) int64 {
	if v.Max <= v.Min {
		return v.Min
	}
	switch v.Distribution {
	case Normal:
		mean := float64(v.Min+v.Max) / 2
		sigma := float64(v.Max-v.Min) / 6
		x := int64(mean + r.NormFloat64()*sigma)
		return min(max(x, v.Min), v.Max)
	default:
		return v.Min + r.Int64N(v.Max-v.Min+1)
	}
}

// MoneyRange samples starting cash uniformly from [Min, Max].
type MoneyRange struct {
	Min int64
	Max int64
}

func (m MoneyRange) Sample(r *rand.Rand) int64 {
	if m.Max <= m.Min {
		return m.Min
	}
	return m.Min + r.Int64N(m.Max-m.Min+1)
}

// Ledger holds every participant of a room keyed by username. It outlives any
// single mechanism: switching mechanism carries the ledger over.
type Ledger struct {
	participants map[string]*Participant
	auctioneer   string

	valuation Sampler
	money     Sampler
	rng       *rand.Rand
}

func NewLedger(valuation, money Sampler, rng *rand.Rand) *Ledger {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Ledger{
		participants: make(map[string]*Participant),
		valuation:    valuation,
		money:        money,
		rng:          rng,
	}
}

// Add registers a participant, sampling its valuation and cash. Adding a
// known username does nothing and reports false.
func (l *Ledger) Add(username string) (*Participant, bool) {
	if p, ok := l.participants[username]; ok {
		return p, false
	}
	p := &Participant{
		Username:   username,
		LimitPrice: l.valuation.Sample(l.rng),
		Money:      l.money.Sample(l.rng),
	}
	l.participants[username] = p
	return p, true
}

// Remove drops a participant. Unknown usernames are ignored.
func (l *Ledger) Remove(username string) bool {
	if _, ok := l.participants[username]; !ok {
		return false
	}
	delete(l.participants, username)
	return true
}

func (l *Ledger) Get(username string) (*Participant, bool) {
	p, ok := l.participants[username]
	return p, ok
}

func (l *Ledger) Len() int {
	return len(l.participants)
}

func (l *Ledger) SetAuctioneer(username string) {
	l.auctioneer = username
}

func (l *Ledger) Auctioneer() string {
	return l.auctioneer
}

func (l *Ledger) IsAuctioneer(username string) bool {
	return l.auctioneer != "" && username == l.auctioneer
}

// Bidders counts the registered participants other than the auctioneer.
func (l *Ledger) Bidders() int {
	n := len(l.participants)
	if _, ok := l.participants[l.auctioneer]; ok {
		n--
	}
	return n
}

// bidder returns the participant if it may bid: registered and not the
// auctioneer.
func (l *Ledger) bidder(username string) (*Participant, error) {
	if l.IsAuctioneer(username) {
		return nil, fmt.Errorf("%w: auctioneer cannot bid", ErrIneligible)
	}
	p, ok := l.participants[username]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrIneligible, username)
	}
	return p, nil
}

// settleSale moves price from buyer to the auctioneer and books both sides'
// profit against their valuations.
func (l *Ledger) settleSale(buyer *Participant, price int64) {
	buyer.Money -= price
	buyer.Profits += buyer.LimitPrice - price
	if seller, ok := l.participants[l.auctioneer]; ok {
		seller.Money += price
		seller.Profits -= seller.LimitPrice - price
	}
}

func (l *Ledger) Usernames() []string {
	names := make([]string, 0, len(l.participants))
	for name := range l.participants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Ledger) Profits() map[string]int64 {
	out := make(map[string]int64, len(l.participants))
	for name, p := range l.participants {
		out[name] = p.Profits
	}
	return out
}
