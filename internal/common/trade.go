package common

import (
	"fmt"
	"time"
)

// Trade accounts for the two parties who matched. Price is always the price
// of the resting (maker) order.
type Trade struct {
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	Quantity  uint64    `json:"quantity"`
	Price     int64     `json:"price"`
	BuyOrder  uint64    `json:"buy_order"`
	SellOrder uint64    `json:"sell_order"`
	Timestamp time.Time `json:"timestamp"`
}

// Notional is the cash value exchanged by the trade.
func (t Trade) Notional() int64 {
	return int64(t.Quantity) * t.Price
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`Buyer:     %s (order %d)
Seller:    %s (order %d)
Quantity:  %d
Price:     %d
Timestamp: %v`,
		t.Buyer, t.BuyOrder,
		t.Seller, t.SellOrder,
		t.Quantity,
		t.Price,
		t.Timestamp.Format(time.RFC3339),
	)
}
