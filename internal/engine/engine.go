package engine

import "agora/internal/common"

// Reporter receives every trade the book executes, synchronously and in the
// order the trades happen. Implementations must not call back into the book.
type Reporter interface {
	ReportTrade(trade common.Trade)
}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(trade common.Trade)

func (f ReporterFunc) ReportTrade(trade common.Trade) { f(trade) }

// trade builds the trade record between an incoming taker and a resting maker
// and hands it to the reporter. The trade always executes at the maker's
// price.
func (book *OrderBook) trade(taker, maker *Order, quantity uint64) {
	if book.reporter == nil {
		return
	}
	buy, sell := taker, maker
	if taker.Side == common.Ask {
		buy, sell = maker, taker
	}
	book.reporter.ReportTrade(common.Trade{
		Buyer:     buy.Owner,
		Seller:    sell.Owner,
		Quantity:  quantity,
		Price:     maker.Price,
		BuyOrder:  buy.ID,
		SellOrder: sell.ID,
		Timestamp: taker.Timestamp,
	})
}
