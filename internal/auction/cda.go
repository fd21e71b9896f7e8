package auction

import (
	"agora/internal/common"
	"agora/internal/engine"
)

// DoubleAuction is a continuous double auction over a limit order book. It
// never ends on its own; every trade settles as soon as it executes.
type DoubleAuction struct {
	ledger *Ledger
	book   *engine.OrderBook
	trades []common.Trade
}

func NewCDA(ledger *Ledger, opts Options) *DoubleAuction {
	opts = opts.withDefaults(ContinuousDouble)
	a := &DoubleAuction{
		ledger: ledger,
		book:   engine.NewOrderBook(),
	}
	a.book.SetReporter(a)
	a.book.SetStrict(opts.StrictBook)
	a.book.SetClock(opts.Clock)
	return a
}

func (a *DoubleAuction) Kind() Kind      { return ContinuousDouble }
func (a *DoubleAuction) Ledger() *Ledger { return a.ledger }
func (a *DoubleAuction) mechanism()      {}

// Book exposes the order book for read-only inspection.
func (a *DoubleAuction) Book() *engine.OrderBook {
	return a.book
}

// Bid places a buy order for a registered participant other than the
// auctioneer.
func (a *DoubleAuction) Bid(caller string, quantity uint64, price int64, kind common.OrderKind) (uint64, error) {
	return a.submit(common.Bid, caller, quantity, price, kind)
}

// Ask places a sell order for a registered participant other than the
// auctioneer.
func (a *DoubleAuction) Ask(caller string, quantity uint64, price int64, kind common.OrderKind) (uint64, error) {
	return a.submit(common.Ask, caller, quantity, price, kind)
}

func (a *DoubleAuction) submit(side common.Side, caller string, quantity uint64, price int64, kind common.OrderKind) (uint64, error) {
	if _, err := a.ledger.bidder(caller); err != nil {
		return 0, err
	}
	return a.book.Submit(side, quantity, price, kind, caller)
}

// Cancel withdraws one of the caller's resting orders.
func (a *DoubleAuction) Cancel(caller string, id uint64) bool {
	return a.book.Cancel(id, caller)
}

// ReportTrade settles a trade between the two parties as the book executes
// it and appends it to the history.
func (a *DoubleAuction) ReportTrade(trade common.Trade) {
	a.trades = append(a.trades, trade)

	qty := int64(trade.Quantity)
	if buyer, ok := a.ledger.Get(trade.Buyer); ok {
		buyer.Money -= trade.Notional()
		buyer.Profits += qty * (buyer.LimitPrice - trade.Price)
	}
	if seller, ok := a.ledger.Get(trade.Seller); ok {
		seller.Money += trade.Notional()
		seller.Profits += qty * (trade.Price - seller.LimitPrice)
	}
}

// Trades is the trade history, oldest first.
func (a *DoubleAuction) Trades() []common.Trade {
	return append([]common.Trade(nil), a.trades...)
}

func (a *DoubleAuction) Snapshot() Snapshot {
	s := Snapshot{
		Kind:     ContinuousDouble.String(),
		Profits:  a.ledger.Profits(),
		Trades:   a.Trades(),
		BidDepth: a.book.Depth(common.Bid),
		AskDepth: a.book.Depth(common.Ask),
	}
	if p, ok := a.book.BestBid(); ok {
		s.BestBid = ptr(p)
	}
	if p, ok := a.book.BestAsk(); ok {
		s.BestAsk = ptr(p)
	}
	if n := len(a.trades); n > 0 {
		s.Price = ptr(a.trades[n-1].Price)
	}
	return s
}
