package engine

import (
	"time"

	"agora/internal/common"
)

type Order struct {
	ID            uint64           // Book assigned, strictly increasing
	Side          common.Side      //
	Kind          common.OrderKind //
	Price         int64            // Limiting price, ignored for market orders
	Quantity      uint64           // Remaining quantity
	TotalQuantity uint64           // Total volume requested
	Owner         string           // Who owns this order
	Timestamp     time.Time        // Time of arrival of order into the book

	// Links into the FIFO queue of the level the order rests on.
	prev, next *Order
	level      *PriceLevel
}

// Filled reports whether nothing is left to trade on the order.
func (o *Order) Filled() bool {
	return o.Quantity == 0
}
