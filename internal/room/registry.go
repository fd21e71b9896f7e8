package room

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNoSuchRoom = errors.New("no such room")

// Registry owns every open room. Rooms share nothing with each other; the
// registry only maps ids to running rooms.
type Registry struct {
	ctx    context.Context
	params Params

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry. Rooms stop when ctx is done.
func NewRegistry(ctx context.Context, params Params) *Registry {
	return &Registry{
		ctx:    ctx,
		params: params,
		rooms:  make(map[string]*Room),
	}
}

// Open returns the room with the given id, starting it if needed. An empty
// id opens a new room under a generated id.
func (reg *Registry) Open(id string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if r, ok := reg.rooms[id]; ok {
		return r, nil
	}

	r, err := New(id, reg.params)
	if err != nil {
		return nil, err
	}
	r.Start(reg.ctx)
	reg.rooms[id] = r
	return r, nil
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[id]
	return r, ok
}

func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}

// Close stops a room and forgets it.
func (reg *Registry) Close(id string) error {
	reg.mu.Lock()
	r, ok := reg.rooms[id]
	delete(reg.rooms, id)
	reg.mu.Unlock()

	if !ok {
		return ErrNoSuchRoom
	}
	return r.Stop()
}

// Shutdown stops every room.
func (reg *Registry) Shutdown() error {
	reg.mu.Lock()
	rooms := reg.rooms
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	var errs []error
	for id, r := range rooms {
		if err := r.Stop(); err != nil {
			log.Error().Err(err).Str("room", id).Msg("unable to stop room")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
