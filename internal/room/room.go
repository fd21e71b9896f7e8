package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"agora/internal/auction"
	"agora/internal/common"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Params are the validated room settings handed over by the configuration
// layer.
type Params struct {
	Kind       auction.Kind
	Timer      time.Duration
	Valuation  auction.Sampler
	Money      auction.Sampler
	StrictBook bool
	Clock      func() time.Time
	Rand       *rand.Rand
}

type request struct {
	cmd   Command
	reply chan Result
}

// Room owns one auction. All commands for a room are processed by a single
// goroutine, one at a time, so mechanisms need no locking of their own.
type Room struct {
	id       string
	params   Params
	ledger   *auction.Ledger
	mech     auction.Mechanism
	admin    string
	timer    time.Duration
	requests chan request
	t        *tomb.Tomb
}

func New(id string, params Params) (*Room, error) {
	r := &Room{
		id:       id,
		params:   params,
		ledger:   auction.NewLedger(params.Valuation, params.Money, params.Rand),
		timer:    params.Timer,
		requests: make(chan request),
	}
	mech, err := auction.New(params.Kind, r.ledger, r.options())
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", id, err)
	}
	r.mech = mech
	return r, nil
}

func (r *Room) ID() string { return r.id }

func (r *Room) options() auction.Options {
	return auction.Options{
		Timer:      r.timer,
		Clock:      r.params.Clock,
		StrictBook: r.params.StrictBook,
	}
}

// Start runs the room until ctx is done or Stop is called.
func (r *Room) Start(ctx context.Context) {
	r.t, _ = tomb.WithContext(ctx)
	r.t.Go(r.loop)
}

func (r *Room) Stop() error {
	r.t.Kill(nil)
	if err := r.t.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (r *Room) loop() error {
	log.Info().Str("room", r.id).Str("kind", r.mech.Kind().String()).Msg("room open")
	for {
		select {
		case <-r.t.Dying():
			log.Info().Str("room", r.id).Msg("room closed")
			return nil
		case req := <-r.requests:
			req.reply <- r.handle(req.cmd)
		}
	}
}

// Do hands a command to the room's goroutine and waits for its result.
func (r *Room) Do(ctx context.Context, cmd Command) (Result, error) {
	req := request{cmd: cmd, reply: make(chan Result, 1)}
	select {
	case r.requests <- req:
	case <-r.t.Dying():
		return Result{}, ErrRoomClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-r.t.Dying():
		return Result{}, ErrRoomClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (r *Room) handle(cmd Command) Result {
	var (
		res Result
		err error
	)
	switch cmd.Op {
	case OpRegister:
		res = r.register(cmd)
	case OpLeave:
		res = r.changed(r.ledger.Remove(cmd.Caller))
	case OpConfigure:
		err = r.configure(cmd)
	case OpBid:
		res, err = r.bid(cmd)
	case OpAsk:
		res, err = r.ask(cmd)
	case OpCancel:
		err = r.cancel(cmd)
	case OpUpdateOffer:
		err = r.updateOffer(cmd)
	case OpClose:
		err = r.close(cmd)
	case OpStatus:
		// Not a rejection either way; changed only if a deadline settled.
		settled := r.poll()
		return Result{StateChanged: settled, Fields: r.mech.Snapshot()}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOperation, cmd.Op)
	}

	if err != nil {
		res = Result{Reason: reason(err)}
		res.Fields.Kind = r.mech.Kind().String()
		log.Debug().
			Str("room", r.id).
			Str("caller", cmd.Caller).
			Str("op", string(cmd.Op)).
			Str("reason", res.Reason).
			Err(err).
			Msg("command rejected")
		return res
	}
	if res.Reason == "" {
		res.StateChanged = true
		orderID := res.Fields.OrderID
		res.Fields = r.mech.Snapshot()
		res.Fields.OrderID = orderID
		log.Info().
			Str("room", r.id).
			Str("caller", cmd.Caller).
			Str("op", string(cmd.Op)).
			Msg("state changed")
	}
	return res
}

// changed builds the result of an operation that may legitimately do
// nothing.
func (r *Room) changed(ok bool) Result {
	if ok {
		return Result{}
	}
	return Result{Reason: "no_change", Fields: auction.Snapshot{Kind: r.mech.Kind().String()}}
}

// register adds the caller to the room. The first participant becomes the
// room admin and the auctioneer.
func (r *Room) register(cmd Command) Result {
	if _, added := r.ledger.Add(cmd.Caller); !added {
		return r.changed(false)
	}
	if r.admin == "" {
		r.admin = cmd.Caller
		r.ledger.SetAuctioneer(cmd.Caller)
	}
	return Result{}
}

// configure restarts the auction, switching kind and timer when given. The
// ledger carries over; all mechanism state is discarded.
func (r *Room) configure(cmd Command) error {
	if cmd.Caller != r.admin {
		return ErrNotAdmin
	}
	kind := r.mech.Kind()
	if v, ok := cmd.Args["kind"]; ok {
		name, _ := v.(string)
		k, err := auction.ParseKind(name)
		if err != nil {
			return err
		}
		kind = k
	}
	timer := r.timer
	if v, ok := cmd.Args["timer"]; ok {
		secs, err := auction.ParseAmount(v)
		if err != nil {
			return err
		}
		if secs <= 0 {
			return fmt.Errorf("%w: timer %d", auction.ErrMalformedAmount, secs)
		}
		timer = time.Duration(secs) * time.Second
	}

	r.timer = timer
	mech, err := auction.New(kind, r.ledger, r.options())
	if err != nil {
		return err
	}
	r.mech = mech
	return nil
}

func (r *Room) bid(cmd Command) (Result, error) {
	switch m := r.mech.(type) {
	case *auction.DutchAuction:
		// Dutch bids take the posted price, no amount needed.
		return Result{}, m.Accept(cmd.Caller)
	case *auction.EnglishAuction:
		amount, err := auction.ParseAmount(cmd.Args["price"])
		if err != nil {
			return Result{}, err
		}
		return Result{}, m.Bid(cmd.Caller, amount)
	case *auction.FirstPriceAuction:
		amount, err := auction.ParseAmount(cmd.Args["price"])
		if err != nil {
			return Result{}, err
		}
		return Result{}, m.Bid(cmd.Caller, amount)
	case *auction.SecondPriceAuction:
		amount, err := auction.ParseAmount(cmd.Args["price"])
		if err != nil {
			return Result{}, err
		}
		return Result{}, m.Bid(cmd.Caller, amount)
	case *auction.DoubleAuction:
		return r.submit(common.Bid, m, cmd)
	}
	panic(fmt.Sprintf("unhandled mechanism %T", r.mech))
}

func (r *Room) ask(cmd Command) (Result, error) {
	m, ok := r.mech.(*auction.DoubleAuction)
	if !ok {
		return Result{}, ErrUnsupported
	}
	return r.submit(common.Ask, m, cmd)
}

func (r *Room) submit(side common.Side, m *auction.DoubleAuction, cmd Command) (Result, error) {
	quantity, err := auction.ParseQuantity(cmd.Args["quantity"])
	if err != nil {
		return Result{}, err
	}
	price := int64(0)
	kindName, _ := cmd.Args["kind"].(string)
	kind, err := common.ParseOrderKind(kindName)
	if err != nil {
		return Result{}, err
	}
	if kind != common.Market {
		if price, err = auction.ParseAmount(cmd.Args["price"]); err != nil {
			return Result{}, err
		}
	}

	var id uint64
	if side == common.Bid {
		id, err = m.Bid(cmd.Caller, quantity, price, kind)
	} else {
		id, err = m.Ask(cmd.Caller, quantity, price, kind)
	}
	if err != nil {
		return Result{}, err
	}
	var res Result
	res.Fields.OrderID = &id
	return res, nil
}

func (r *Room) cancel(cmd Command) error {
	m, ok := r.mech.(*auction.DoubleAuction)
	if !ok {
		return ErrUnsupported
	}
	id, err := auction.ParseQuantity(cmd.Args["order_id"])
	if err != nil {
		return err
	}
	if !m.Cancel(cmd.Caller, id) {
		return fmt.Errorf("%w: order %d", auction.ErrIneligible, id)
	}
	return nil
}

func (r *Room) updateOffer(cmd Command) error {
	m, ok := r.mech.(*auction.DutchAuction)
	if !ok {
		return ErrUnsupported
	}
	price, err := auction.ParseAmount(cmd.Args["price"])
	if err != nil {
		return err
	}
	return m.UpdateOffer(cmd.Caller, price)
}

// close settles a timed auction whose deadline has passed.
func (r *Room) close(cmd Command) error {
	if cmd.Caller != r.admin {
		return ErrNotAdmin
	}
	switch m := r.mech.(type) {
	case *auction.DutchAuction, *auction.DoubleAuction:
		return ErrUnsupported
	case *auction.EnglishAuction:
		if m.Settled() {
			return auction.ErrAuctionClosed
		}
		if !m.Settle() {
			return ErrNotFinished
		}
	case *auction.FirstPriceAuction:
		if m.Settled() {
			return auction.ErrAuctionClosed
		}
		if !m.Poll() {
			return ErrNotFinished
		}
	case *auction.SecondPriceAuction:
		if m.Settled() {
			return auction.ErrAuctionClosed
		}
		if !m.Poll() {
			return ErrNotFinished
		}
	}
	return nil
}

// poll evaluates deadlines lazily, settling an auction that has finished
// since the last command.
func (r *Room) poll() bool {
	switch m := r.mech.(type) {
	case *auction.EnglishAuction:
		return m.Settle()
	case *auction.FirstPriceAuction:
		return m.Poll()
	case *auction.SecondPriceAuction:
		return m.Poll()
	}
	return false
}
