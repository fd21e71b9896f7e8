package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"agora/internal/room"
	"agora/internal/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	MAX_RECV_SIZE      = 4 * 1024
	defaultIdleTimeout = 10 * time.Minute
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
)

// ClientSession contains relevant information pertaining to an individual
// connected TCP session.
type ClientSession struct {
	id   string
	conn net.Conn

	mu   sync.Mutex // guards writes and room
	room string
}

func (c *ClientSession) send(resp Response) error {
	b, err := resp.Serialize()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.conn.Write(b)
	return err
}

func (c *ClientSession) join(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.room = roomID
}

func (c *ClientSession) roomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

type Server struct {
	address  string
	port     int
	pool     *utils.WorkerPool
	registry *room.Registry

	clientSessions     map[string]*ClientSession
	clientSessionsLock sync.Mutex

	listener net.Listener
	ready    chan struct{}
}

func New(address string, port int, workers uint, registry *room.Registry) *Server {
	return &Server{
		address:        address,
		port:           port,
		pool:           utils.NewWorkerPool(workers),
		registry:       registry,
		clientSessions: make(map[string]*ClientSession),
		ready:          make(chan struct{}),
	}
}

// Ready is closed once the server is listening.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr is the listening address, valid after Ready.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run serves until ctx is done. Each connection is owned by one worker for
// its lifetime, so the worker count bounds concurrent clients.
func (s *Server) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	// Start a tcp listener.
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return err
	}
	s.listener = listener
	close(s.ready)

	// Start the worker pool.
	s.pool.Setup(t, s.handleConnection)

	// Unblock Accept and every reader on shutdown.
	t.Go(func() error {
		<-t.Dying()
		log.Info().Msg("server shutting down")
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
		s.closeClientSessions()
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server running")

	// Start accepting connections.
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !t.Alive() {
				break
			}
			log.Error().Err(err).Msg("error accepting client")
			continue
		}

		session := s.addClientSession(conn)
		log.Info().
			Str("address", conn.RemoteAddr().String()).
			Str("session", session.id).
			Msg("new client added")

		// Pass over the connection to be read from.
		if err := s.pool.AddTask(t, session); err != nil {
			s.deleteClientSession(session.id)
			break
		}
	}

	t.Kill(nil)
	if err := t.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// handleConnection is a worker method which reads newline delimited requests
// off the connection until the client leaves, handing each to its room.
// Client faults are logged and end the session; they never stop the worker.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	session, ok := task.(*ClientSession)
	if !ok {
		return ErrImproperConversion
	}
	defer s.deleteClientSession(session.id)

	ctx := t.Context(context.Background())
	scanner := bufio.NewScanner(session.conn)
	scanner.Buffer(make([]byte, MAX_RECV_SIZE), MAX_RECV_SIZE)

	for {
		if err := session.conn.SetReadDeadline(time.Now().Add(defaultIdleTimeout)); err != nil {
			log.Error().Err(err).Str("session", session.id).Msg("failed setting deadline for connection")
			return nil
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := s.handleRequest(ctx, session, line); err != nil {
			log.Error().Err(err).Str("session", session.id).Msg("unable to reply to client")
			return nil
		}
	}

	if err := scanner.Err(); err != nil && t.Alive() {
		log.Error().Err(err).Str("session", session.id).Msg("error reading from connection")
	}
	return nil
}

func (s *Server) handleRequest(ctx context.Context, session *ClientSession, line []byte) error {
	req, err := parseRequest(line)
	if err != nil {
		log.Debug().Err(err).Str("session", session.id).Msg("error parsing message")
		return session.send(errorResponse(req, err))
	}

	r, err := s.registry.Open(req.Room)
	if err != nil {
		return session.send(errorResponse(req, err))
	}
	req.Room = r.ID()
	session.join(req.Room)

	res, err := r.Do(ctx, req.Command())
	if err != nil {
		return session.send(errorResponse(req, err))
	}

	resp := newResponse(req, res)
	if res.StateChanged {
		s.broadcast(req.Room, resp)
		return nil
	}
	return session.send(resp)
}

// broadcast sends resp to every session in the room. Sessions that cannot be
// written to are dropped.
func (s *Server) broadcast(roomID string, resp Response) {
	s.clientSessionsLock.Lock()
	targets := make([]*ClientSession, 0, len(s.clientSessions))
	for _, session := range s.clientSessions {
		if session.roomID() == roomID {
			targets = append(targets, session)
		}
	}
	s.clientSessionsLock.Unlock()

	for _, session := range targets {
		if err := session.send(resp); err != nil {
			log.Error().Err(err).Str("session", session.id).Msg("unable to send broadcast")
			s.deleteClientSession(session.id)
		}
	}
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(conn net.Conn) *ClientSession {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	session := &ClientSession{id: uuid.NewString(), conn: conn}
	s.clientSessions[session.id] = session
	return session
}

// deleteClientSession is an atomic map remove that also closes the connection.
func (s *Server) deleteClientSession(id string) {
	s.clientSessionsLock.Lock()
	session, ok := s.clientSessions[id]
	delete(s.clientSessions, id)
	s.clientSessionsLock.Unlock()

	if ok {
		if err := session.conn.Close(); err != nil {
			log.Debug().Err(err).Str("session", id).Msg("unable to close connection")
		}
	}
}

func (s *Server) closeClientSessions() {
	s.clientSessionsLock.Lock()
	ids := make([]string, 0, len(s.clientSessions))
	for id := range s.clientSessions {
		ids = append(ids, id)
	}
	s.clientSessionsLock.Unlock()

	for _, id := range ids {
		s.deleteClientSession(id)
	}
}
