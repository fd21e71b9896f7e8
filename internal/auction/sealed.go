package auction

import (
	"fmt"
	"time"
)

// sealedBids is the bookkeeping shared by both sealed-bid auctions: one bid
// per participant, a fixed deadline from creation, and early close once every
// bidder has bid.
type sealedBids struct {
	ledger   *Ledger
	now      func() time.Time
	deadline time.Time

	seen    map[string]struct{}
	history []Bid
	settled bool
}

func newSealedBids(ledger *Ledger, kind Kind, opts Options) sealedBids {
	opts = opts.withDefaults(kind)
	return sealedBids{
		ledger:   ledger,
		now:      opts.Clock,
		deadline: opts.Clock().Add(opts.Timer),
		seen:     make(map[string]struct{}),
	}
}

func (s *sealedBids) Ledger() *Ledger { return s.ledger }

func (s *sealedBids) Deadline() time.Time { return s.deadline }

// Finished reports whether the deadline passed or all bidders have bid.
func (s *sealedBids) Finished() bool {
	if s.settled || !s.now().Before(s.deadline) {
		return true
	}
	bidders := s.ledger.Bidders()
	return len(s.seen) > 0 && len(s.seen) >= bidders
}

func (s *sealedBids) Settled() bool { return s.settled }

// admit records the caller's single sealed bid. The bid counts towards the
// early close even when it cannot lead.
func (s *sealedBids) admit(caller string, amount int64) (*Participant, error) {
	bidder, err := s.ledger.bidder(caller)
	if err != nil {
		return nil, err
	}
	if s.Finished() {
		return nil, ErrAuctionClosed
	}
	if _, ok := s.seen[caller]; ok {
		return nil, fmt.Errorf("%w: %s already bid", ErrIneligible, caller)
	}
	s.seen[caller] = struct{}{}
	s.history = append(s.history, Bid{
		Bidder:     caller,
		Amount:     amount,
		LimitPrice: bidder.LimitPrice,
		Time:       s.now(),
	})
	return bidder, nil
}

// settle runs once when the auction is finished: the winner, if still
// registered, buys at price.
func (s *sealedBids) settle(winner string, price int64) bool {
	if s.settled || !s.Finished() {
		return false
	}
	s.settled = true
	if p, ok := s.ledger.Get(winner); ok && winner != "" {
		s.ledger.settleSale(p, price)
	}
	return true
}

func (s *sealedBids) snapshot(kind Kind, leader string, price int64) Snapshot {
	snap := Snapshot{
		Kind:     kind.String(),
		Profits:  s.ledger.Profits(),
		Finished: s.Finished(),
	}
	// Bids stay sealed until the auction is over.
	if snap.Finished {
		snap.Bids = append([]Bid(nil), s.history...)
		snap.Leader = leader
		if leader != "" {
			snap.Price = ptr(price)
		}
	} else {
		snap.Countdown = countdown(s.deadline, s.now())
	}
	return snap
}

// FirstPriceAuction is a sealed-bid auction where the highest bidder pays its
// own bid.
type FirstPriceAuction struct {
	sealedBids
	best Bid
}

func NewFirstPrice(ledger *Ledger, opts Options) *FirstPriceAuction {
	return &FirstPriceAuction{sealedBids: newSealedBids(ledger, FirstPriceSealedBid, opts)}
}

func (a *FirstPriceAuction) Kind() Kind { return FirstPriceSealedBid }
func (a *FirstPriceAuction) mechanism() {}

// Bid submits the caller's one sealed bid. An affordable bid strictly above
// the best so far takes the lead. The auction settles as soon as it is
// finished.
func (a *FirstPriceAuction) Bid(caller string, amount int64) error {
	bidder, err := a.admit(caller, amount)
	if err != nil {
		return err
	}
	if bidder.Money >= amount && amount > a.best.Amount {
		a.best = a.history[len(a.history)-1]
	}
	a.Poll()
	return nil
}

// Poll settles the auction if it has finished since the last call and
// reports whether it did.
func (a *FirstPriceAuction) Poll() bool {
	return a.settle(a.best.Bidder, a.best.Amount)
}

// Winner returns the leading bidder and the price it would pay.
func (a *FirstPriceAuction) Winner() (string, int64, bool) {
	return a.best.Bidder, a.best.Amount, a.best.Bidder != ""
}

func (a *FirstPriceAuction) Snapshot() Snapshot {
	return a.snapshot(FirstPriceSealedBid, a.best.Bidder, a.best.Amount)
}

// SecondPriceAuction is a sealed-bid Vickrey auction: the highest bidder wins
// and pays the second highest bid.
type SecondPriceAuction struct {
	sealedBids
	best       Bid
	secondBest Bid
}

func NewSecondPrice(ledger *Ledger, opts Options) *SecondPriceAuction {
	return &SecondPriceAuction{sealedBids: newSealedBids(ledger, SecondPriceSealedBid, opts)}
}

func (a *SecondPriceAuction) Kind() Kind { return SecondPriceSealedBid }
func (a *SecondPriceAuction) mechanism() {}

// Bid submits the caller's one sealed bid. A bid above the best pushes the
// old best down to second place; a bid only above the second replaces it.
func (a *SecondPriceAuction) Bid(caller string, amount int64) error {
	bidder, err := a.admit(caller, amount)
	if err != nil {
		return err
	}
	if bidder.Money >= amount {
		bid := a.history[len(a.history)-1]
		switch {
		case amount > a.best.Amount:
			a.secondBest, a.best = a.best, bid
		case amount > a.secondBest.Amount:
			a.secondBest = bid
		}
	}
	a.Poll()
	return nil
}

func (a *SecondPriceAuction) Poll() bool {
	return a.settle(a.best.Bidder, a.secondBest.Amount)
}

// Winner returns the leading bidder and the second price it would pay.
func (a *SecondPriceAuction) Winner() (string, int64, bool) {
	return a.best.Bidder, a.secondBest.Amount, a.best.Bidder != ""
}

// RunnerUp returns the second highest bid.
func (a *SecondPriceAuction) RunnerUp() (string, int64, bool) {
	return a.secondBest.Bidder, a.secondBest.Amount, a.secondBest.Bidder != ""
}

func (a *SecondPriceAuction) Snapshot() Snapshot {
	return a.snapshot(SecondPriceSealedBid, a.best.Bidder, a.secondBest.Amount)
}
