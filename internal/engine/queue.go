package engine

// orderQueue is an intrusive doubly linked list of orders, oldest at the
// head. Any member can be unlinked in O(1) given its pointer.
type orderQueue struct {
	head   *Order
	tail   *Order
	length int
}

func (q *orderQueue) pushBack(o *Order) {
	o.prev, o.next = q.tail, nil
	if q.tail == nil {
		q.head = o
	} else {
		q.tail.next = o
	}
	q.tail = o
	q.length++
}

func (q *orderQueue) front() *Order {
	return q.head
}

func (q *orderQueue) popFront() *Order {
	o := q.head
	if o == nil {
		return nil
	}
	q.remove(o)
	return o
}

// remove unlinks o, which must be a member of q.
func (q *orderQueue) remove(o *Order) {
	if o.prev == nil {
		q.head = o.next
	} else {
		o.prev.next = o.next
	}
	if o.next == nil {
		q.tail = o.prev
	} else {
		o.next.prev = o.prev
	}
	o.prev, o.next = nil, nil
	q.length--
}

func (q *orderQueue) len() int {
	return q.length
}

// each walks the queue oldest first until fn returns false.
func (q *orderQueue) each(fn func(o *Order) bool) {
	for o := q.head; o != nil; o = o.next {
		if !fn(o) {
			return
		}
	}
}
