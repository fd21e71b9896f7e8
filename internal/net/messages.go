package net

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"agora/internal/auction"
	"agora/internal/room"

	"github.com/segmentio/encoding/json"
)

var (
	ErrInvalidMessage = errors.New("invalid message")
)

// Request is one line sent by a client:
//
//	{"room":"r1","username":"alice","op":"bid","args":{"price":"120"}}
type Request struct {
	Room     string         `json:"room"`
	Username string         `json:"username"`
	Op       string         `json:"op"`
	Args     map[string]any `json:"args,omitempty"`
}

// Response is one line sent back to clients. Broadcast responses carry the
// username of the participant whose command changed the room.
type Response struct {
	Room         string            `json:"room"`
	Username     string            `json:"username"`
	Op           string            `json:"op"`
	StateChanged bool              `json:"state_changed"`
	Reason       string            `json:"reason,omitempty"`
	Error        string            `json:"error,omitempty"`
	Fields       *auction.Snapshot `json:"fields,omitempty"`
}

// parseRequest decodes one request line. Numbers are kept as json.Number so
// amounts are parsed exactly, later, by the auction layer.
func parseRequest(line []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var req Request
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Op = strings.ToLower(strings.TrimSpace(req.Op))
	switch {
	case req.Username == "":
		return Request{}, fmt.Errorf("%w: missing username", ErrInvalidMessage)
	case req.Op == "":
		return Request{}, fmt.Errorf("%w: missing op", ErrInvalidMessage)
	}
	return req, nil
}

func (r Request) Command() room.Command {
	return room.Command{
		Caller: r.Username,
		Op:     room.Operation(r.Op),
		Args:   r.Args,
	}
}

func newResponse(req Request, res room.Result) Response {
	fields := res.Fields
	return Response{
		Room:         req.Room,
		Username:     req.Username,
		Op:           req.Op,
		StateChanged: res.StateChanged,
		Reason:       res.Reason,
		Fields:       &fields,
	}
}

func errorResponse(req Request, err error) Response {
	return Response{
		Room:     req.Room,
		Username: req.Username,
		Op:       req.Op,
		Error:    err.Error(),
	}
}

// Serialize converts the response to a newline terminated line for the wire.
func (r Response) Serialize() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
