package auction

import (
	"fmt"
	"time"
)

// DutchAuction is a descending-price auction: the auctioneer posts a price and
// keeps lowering it until some participant accepts.
type DutchAuction struct {
	ledger *Ledger
	now    func() time.Time
	price  int64
	posted bool
	sales  []Bid
}

func NewDutch(ledger *Ledger, opts Options) *DutchAuction {
	opts = opts.withDefaults(Dutch)
	return &DutchAuction{ledger: ledger, now: opts.Clock}
}

func (a *DutchAuction) Kind() Kind      { return Dutch }
func (a *DutchAuction) Ledger() *Ledger { return a.ledger }
func (a *DutchAuction) mechanism()      {}

// Price returns the posted price, if an offer is standing.
func (a *DutchAuction) Price() (int64, bool) {
	return a.price, a.posted
}

// UpdateOffer posts a new price. Only the auctioneer may post, the price must
// be positive, and a standing offer can only be lowered.
func (a *DutchAuction) UpdateOffer(caller string, price int64) error {
	if !a.ledger.IsAuctioneer(caller) {
		return fmt.Errorf("%w: only the auctioneer posts offers", ErrIneligible)
	}
	if price <= 0 {
		return fmt.Errorf("%w: price %d must be positive", ErrMalformedAmount, price)
	}
	if a.posted && price >= a.price {
		return fmt.Errorf("%w: price %d does not lower %d", ErrIneligible, price, a.price)
	}
	a.price, a.posted = price, true
	return nil
}

// Accept takes the standing offer. The sale settles immediately and the
// price is cleared, ready for the next offer.
func (a *DutchAuction) Accept(caller string) error {
	buyer, err := a.ledger.bidder(caller)
	if err != nil {
		return err
	}
	if !a.posted {
		return fmt.Errorf("%w: no standing offer", ErrAuctionClosed)
	}
	if buyer.Money < a.price {
		return ErrInsufficientFunds
	}

	a.sales = append(a.sales, Bid{
		Bidder:     buyer.Username,
		Amount:     a.price,
		LimitPrice: buyer.LimitPrice,
		Time:       a.now(),
	})
	a.ledger.settleSale(buyer, a.price)
	a.price, a.posted = 0, false
	return nil
}

func (a *DutchAuction) Snapshot() Snapshot {
	s := Snapshot{
		Kind:    Dutch.String(),
		Profits: a.ledger.Profits(),
		Bids:    append([]Bid(nil), a.sales...),
	}
	if a.posted {
		s.Price = ptr(a.price)
	}
	if n := len(a.sales); n > 0 {
		s.Leader = a.sales[n-1].Bidder
	}
	return s
}
