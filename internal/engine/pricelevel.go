package engine

// PriceLevel holds every resting order at one price, in arrival order.
// total is always the sum of the remaining quantity of its orders, and a
// level with no orders is removed from the book.
type PriceLevel struct {
	price  int64
	total  uint64
	orders orderQueue
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{price: price}
}

func (l *PriceLevel) Price() int64     { return l.price }
func (l *PriceLevel) Quantity() uint64 { return l.total }
func (l *PriceLevel) Len() int         { return l.orders.len() }

// Head is the oldest order on the level, next in line to be filled.
func (l *PriceLevel) Head() *Order {
	return l.orders.front()
}

// Orders copies the orders of the level, oldest first.
func (l *PriceLevel) Orders() []Order {
	out := make([]Order, 0, l.orders.len())
	l.orders.each(func(o *Order) bool {
		c := *o
		c.prev, c.next, c.level = nil, nil, nil
		out = append(out, c)
		return true
	})
	return out
}

func (l *PriceLevel) append(o *Order) {
	o.level = l
	l.total += o.Quantity
	l.orders.pushBack(o)
}

func (l *PriceLevel) remove(o *Order) {
	l.total -= o.Quantity
	l.orders.remove(o)
	o.level = nil
}

func (l *PriceLevel) popFront() *Order {
	o := l.orders.front()
	if o == nil {
		return nil
	}
	l.remove(o)
	return o
}

// fill takes qty off a member order, keeping the level total in step.
func (l *PriceLevel) fill(o *Order, qty uint64) {
	o.Quantity -= qty
	l.total -= qty
}
