package engine

import (
	"errors"
	"fmt"
	"time"

	"agora/internal/common"

	"github.com/tidwall/btree"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrInvalidSide     = errors.New("invalid order side")
	ErrWouldCross      = errors.New("post-only order would cross the book")
	ErrBookCorrupted   = errors.New("order book corrupted")
)

type PriceLevels = btree.BTreeG[*PriceLevel]

// OrderBook is a price-time priority limit order book. It is not safe for
// concurrent use; callers serialise access (one owner per room).
type OrderBook struct {
	// Price levels sorted best first on both sides, so Min is always the top
	// of book.
	bids *PriceLevels
	asks *PriceLevels

	// Every resting order by id.
	orders map[uint64]*Order
	nextID uint64

	reporter Reporter
	strict   bool
	now      func() time.Time
}

func NewOrderBook() *OrderBook {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price > b.price
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price < b.price
	})
	return &OrderBook{
		bids:   bids,
		asks:   asks,
		orders: make(map[uint64]*Order),
		now:    time.Now,
	}
}

func (book *OrderBook) SetReporter(reporter Reporter) {
	book.reporter = reporter
}

// SetStrict makes every mutating call validate the book afterwards and panic
// if an invariant is broken. Meant for tests and debugging.
func (book *OrderBook) SetStrict(strict bool) {
	book.strict = strict
}

func (book *OrderBook) SetClock(now func() time.Time) {
	book.now = now
}

func (book *OrderBook) levels(side common.Side) *PriceLevels {
	if side == common.Bid {
		return book.bids
	}
	return book.asks
}

// Submit places a new order which can either (fully or partially):
// 1. Execute immediately against the opposing side
// 2. Rest in the book (Limit and PostOnly only)
// Returns the id assigned to the order. An order that was filled or killed
// on arrival keeps its id even though it is no longer in the book.
func (book *OrderBook) Submit(side common.Side, quantity uint64, price int64, kind common.OrderKind, owner string) (uint64, error) {
	switch {
	case side != common.Bid && side != common.Ask:
		return 0, ErrInvalidSide
	case quantity == 0:
		return 0, ErrInvalidQuantity
	case price < 0:
		return 0, ErrInvalidPrice
	case !kind.Valid():
		return 0, fmt.Errorf("%w: %d", common.ErrUnknownOrderKind, int(kind))
	}

	order := &Order{
		Side:          side,
		Kind:          kind,
		Price:         price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Owner:         owner,
		Timestamp:     book.now(),
	}
	if kind == common.Market {
		order.Price = 0
	}

	// A post-only order must never take liquidity.
	if kind == common.PostOnly && book.marketable(order) {
		return 0, ErrWouldCross
	}

	order.ID = book.nextID
	book.nextID++

	book.match(order)

	if order.Quantity > 0 && kind.Rests() {
		book.rest(order)
	}

	book.check()
	return order.ID, nil
}

// Cancel removes a resting order. Only the owner of an order may cancel it;
// unknown ids and foreign orders are ignored.
func (book *OrderBook) Cancel(id uint64, owner string) bool {
	order, ok := book.orders[id]
	if !ok || order.Owner != owner {
		return false
	}

	level := order.level
	level.remove(order)
	if level.Len() == 0 {
		book.levels(order.Side).Delete(level)
	}
	delete(book.orders, id)

	book.check()
	return true
}

// marketable reports whether the top of the opposing side crosses order.
func (book *OrderBook) marketable(order *Order) bool {
	level, ok := book.levels(order.Side.Opposite()).Min()
	return ok && crosses(order, level.price)
}

func crosses(order *Order, price int64) bool {
	switch {
	case order.Kind == common.Market:
		return true
	case order.Side == common.Bid:
		return order.Price >= price
	default:
		return order.Price <= price
	}
}

// match consumes the top of the opposing side while it crosses the incoming
// order, filling resting orders in price-time priority. The incoming order is
// the liquidity taker and every fill executes at the resting order's price.
func (book *OrderBook) match(taker *Order) {
	opposing := book.levels(taker.Side.Opposite())

	for taker.Quantity > 0 {
		level, ok := opposing.MinMut()
		if !ok || !crosses(taker, level.price) {
			break
		}

		for taker.Quantity > 0 && level.Len() > 0 {
			maker := level.Head()
			qty := min(taker.Quantity, maker.Quantity)
			taker.Quantity -= qty
			level.fill(maker, qty)

			book.trade(taker, maker, qty)

			// Filled makers leave every index at once.
			if maker.Quantity == 0 {
				level.popFront()
				delete(book.orders, maker.ID)
			}
		}

		if level.Len() == 0 {
			opposing.Delete(level)
		}
	}
}

// rest places the order on the level for its price on its own side, creating
// the level if needed.
func (book *OrderBook) rest(order *Order) {
	levels := book.levels(order.Side)

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := levels.GetMut(&PriceLevel{price: order.Price})
	if !ok {
		level = newPriceLevel(order.Price)
		levels.Set(level)
	}
	level.append(order)
	book.orders[order.ID] = order
}

func (book *OrderBook) BestBid() (int64, bool) {
	level, ok := book.bids.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

func (book *OrderBook) BestAsk() (int64, bool) {
	level, ok := book.asks.Min()
	if !ok {
		return 0, false
	}
	return level.price, true
}

// Order returns a copy of a resting order.
func (book *OrderBook) Order(id uint64) (Order, bool) {
	order, ok := book.orders[id]
	if !ok {
		return Order{}, false
	}
	c := *order
	c.prev, c.next, c.level = nil, nil, nil
	return c, true
}

// Len is the number of resting orders.
func (book *OrderBook) Len() int {
	return len(book.orders)
}

// Level returns the level resting at price on side, if any.
func (book *OrderBook) Level(side common.Side, price int64) (*PriceLevel, bool) {
	return book.levels(side).Get(&PriceLevel{price: price})
}

// Depth summarises one side of the book, best price first.
type Depth struct {
	Price    int64  `json:"price"`
	Quantity uint64 `json:"quantity"`
	Orders   int    `json:"orders"`
}

func (book *OrderBook) Depth(side common.Side) []Depth {
	out := make([]Depth, 0, book.levels(side).Len())
	book.levels(side).Scan(func(level *PriceLevel) bool {
		out = append(out, Depth{
			Price:    level.price,
			Quantity: level.total,
			Orders:   level.Len(),
		})
		return true
	})
	return out
}

func (book *OrderBook) check() {
	if !book.strict {
		return
	}
	if err := book.Validate(); err != nil {
		panic(err)
	}
}

// Validate walks the whole book and checks its invariants:
//   - every level is non-empty and its total equals the sum of its orders
//   - every queued order sits on the right side and price, has quantity left
//     and is indexed by id
//   - the id index holds nothing that is not queued
//   - the book is not crossed
func (book *OrderBook) Validate() error {
	queued := 0
	for _, side := range []common.Side{common.Bid, common.Ask} {
		var err error
		book.levels(side).Scan(func(level *PriceLevel) bool {
			err = book.validateLevel(side, level)
			queued += level.Len()
			return err == nil
		})
		if err != nil {
			return err
		}
	}

	if queued != len(book.orders) {
		return fmt.Errorf("%w: %d orders queued but %d indexed", ErrBookCorrupted, queued, len(book.orders))
	}

	bid, bidOk := book.BestBid()
	ask, askOk := book.BestAsk()
	if bidOk && askOk && bid >= ask {
		return fmt.Errorf("%w: crossed book, best bid %d >= best ask %d", ErrBookCorrupted, bid, ask)
	}
	return nil
}

func (book *OrderBook) validateLevel(side common.Side, level *PriceLevel) error {
	if level.Len() == 0 {
		return fmt.Errorf("%w: empty %s level at %d", ErrBookCorrupted, side, level.price)
	}

	var (
		sum   uint64
		count int
		err   error
		prev  *Order
	)
	level.orders.each(func(o *Order) bool {
		switch {
		case o.prev != prev:
			err = fmt.Errorf("%w: broken queue link at order %d", ErrBookCorrupted, o.ID)
		case o.Side != side || o.Price != level.price || o.level != level:
			err = fmt.Errorf("%w: order %d misplaced on %s level %d", ErrBookCorrupted, o.ID, side, level.price)
		case o.Quantity == 0:
			err = fmt.Errorf("%w: filled order %d still resting", ErrBookCorrupted, o.ID)
		case book.orders[o.ID] != o:
			err = fmt.Errorf("%w: order %d not indexed", ErrBookCorrupted, o.ID)
		case prev != nil && prev.ID >= o.ID:
			err = fmt.Errorf("%w: order %d queued behind newer order %d", ErrBookCorrupted, o.ID, prev.ID)
		}
		sum += o.Quantity
		count++
		prev = o
		return err == nil
	})
	if err != nil {
		return err
	}

	if count != level.Len() || level.orders.tail != prev {
		return fmt.Errorf("%w: queue length mismatch at %s level %d", ErrBookCorrupted, side, level.price)
	}
	if sum != level.total {
		return fmt.Errorf("%w: %s level %d totals %d but orders sum to %d", ErrBookCorrupted, side, level.price, level.total, sum)
	}
	return nil
}
