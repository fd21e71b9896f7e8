package auction

import (
	"fmt"
	"time"
)

// EnglishAuction is an ascending open-outcry auction with a soft close: every
// accepted bid restarts the bidding window. The clock only starts with the
// first bid.
type EnglishAuction struct {
	ledger *Ledger
	timer  time.Duration
	now    func() time.Time

	price   int64
	leader  string
	lastBid time.Time
	history []Bid
	settled bool
}

func NewEnglish(ledger *Ledger, opts Options) *EnglishAuction {
	opts = opts.withDefaults(English)
	return &EnglishAuction{
		ledger: ledger,
		timer:  opts.Timer,
		now:    opts.Clock,
	}
}

func (a *EnglishAuction) Kind() Kind      { return English }
func (a *EnglishAuction) Ledger() *Ledger { return a.ledger }
func (a *EnglishAuction) mechanism()      {}

// Deadline is the end of the current bidding window, if bidding has started.
func (a *EnglishAuction) Deadline() (time.Time, bool) {
	if a.leader == "" {
		return time.Time{}, false
	}
	return a.lastBid.Add(a.timer), true
}

// Leader returns the current leader and the price it bid.
func (a *EnglishAuction) Leader() (string, int64, bool) {
	return a.leader, a.price, a.leader != ""
}

// Finished reports whether the window has elapsed since the last bid.
func (a *EnglishAuction) Finished() bool {
	deadline, ok := a.Deadline()
	return ok && !a.now().Before(deadline)
}

// Bid raises the price. The amount must be strictly above the current price
// and affordable, the bidder must not already lead, and the window must still
// be open.
func (a *EnglishAuction) Bid(caller string, amount int64) error {
	bidder, err := a.ledger.bidder(caller)
	if err != nil {
		return err
	}
	if caller == a.leader {
		return fmt.Errorf("%w: %s already leads", ErrIneligible, caller)
	}
	if a.Finished() {
		return ErrAuctionClosed
	}
	if amount <= 0 || (a.leader != "" && amount <= a.price) {
		return fmt.Errorf("%w: bid %d does not beat %d", ErrIneligible, amount, a.price)
	}
	if bidder.Money < amount {
		return ErrInsufficientFunds
	}

	now := a.now()
	a.history = append(a.history, Bid{
		Bidder:     caller,
		Amount:     amount,
		LimitPrice: bidder.LimitPrice,
		Time:       now,
	})
	a.price = amount
	a.leader = caller
	a.lastBid = now
	return nil
}

// Settle closes a finished auction: the leader buys at the final price. It
// reports whether settlement happened on this call; it runs at most once.
func (a *EnglishAuction) Settle() bool {
	if a.settled || !a.Finished() {
		return false
	}
	a.settled = true
	if winner, ok := a.ledger.Get(a.leader); ok {
		a.ledger.settleSale(winner, a.price)
	}
	return true
}

func (a *EnglishAuction) Settled() bool {
	return a.settled
}

func (a *EnglishAuction) Snapshot() Snapshot {
	s := Snapshot{
		Kind:     English.String(),
		Leader:   a.leader,
		Profits:  a.ledger.Profits(),
		Bids:     append([]Bid(nil), a.history...),
		Finished: a.Finished(),
	}
	if a.leader != "" {
		s.Price = ptr(a.price)
	}
	if deadline, ok := a.Deadline(); ok {
		s.Countdown = countdown(deadline, a.now())
	}
	return s
}
