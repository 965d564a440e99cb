// Client communication management
//
// Copyright (c) 2024  The go-csr authors
//
// This file is part of go-csr.
//
// go-csr is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License,
// version 3, as published by the Free Software Foundation.
//
// go-csr is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public
// License, version 3, along with go-csr. If not, see
// <http://www.gnu.org/licenses/>

// Package client talks to a go-csr server: unary calls correlated by
// frame id, and event streams dispatched to a Handler.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"sync"
	"sync/atomic"

	csr "go-csr"
	"go-csr/proto"

	"nhooyr.io/websocket"
)

// Handler reacts to the prompts arriving on an event stream.  The
// request/response prompts return the value to send back; an error
// from any method is reported to the server as a client error.
type Handler interface {
	JoinInfo(sid csr.SessionID, uid csr.UserID, name string) error
	Ping(text string) (string, error)
	RollDice(sides, count uint8) ([]uint8, error)
	FlipCoin(count uint8) ([]csr.Coin, error)
	Winner(uid csr.UserID, name string) error
	TryAgain() (bool, error)
	Error(text string) error
}

type stream struct {
	er     csr.EventRegister
	h      Handler
	events chan *proto.Request
	done   chan error
}

// Client is a connection to the server.
type Client struct {
	rwc io.ReadWriteCloser

	iolock sync.Mutex
	rid    uint64 // client-issued frame ids are odd

	pmu     sync.Mutex
	pending map[uint64]chan *proto.Frame
	streams map[uint64]*stream

	closed chan struct{}
	once   sync.Once
}

var wsScheme = regexp.MustCompile(`^wss?://`)

// Dial connects to ADDRESS: a ws:// or wss:// URI is dialled as a
// websocket, anything else as a plain TCP endpoint (an optional
// tcp:// prefix is allowed).
func Dial(ctx context.Context, address string) (*Client, error) {
	var (
		rwc io.ReadWriteCloser
		err error
	)
	if wsScheme.MatchString(address) {
		var conn *websocket.Conn
		conn, _, err = websocket.Dial(ctx, address, nil)
		if err == nil {
			rwc = websocket.NetConn(context.Background(), conn,
				websocket.MessageText)
		}
	} else {
		if len(address) > 6 && address[:6] == "tcp://" {
			address = address[6:]
		}
		var d net.Dialer
		var conn net.Conn
		conn, err = d.DialContext(ctx, "tcp", address)
		rwc = conn
	}
	if err != nil {
		return nil, err
	}

	c := &Client{
		rwc:     rwc,
		pending: make(map[uint64]chan *proto.Frame),
		streams: make(map[uint64]*stream),
		closed:  make(chan struct{}),
	}
	go c.listen()
	return c, nil
}

// Close drops the connection.  Every in-flight call and event stream
// fails with ClientDisconnected.
func (c *Client) Close() error {
	err := c.rwc.Close()
	c.shutdown()
	return err
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.closed)
		c.pmu.Lock()
		streams := c.streams
		c.streams = make(map[uint64]*stream)
		c.pmu.Unlock()
		for _, st := range streams {
			close(st.events)
		}
	})
}

// listen reads frames and routes them to the awaiting caller or
// event stream.
func (c *Client) listen() {
	defer c.shutdown()

	r := bufio.NewReader(c.rwc)
	for {
		f, err := proto.Read(r)
		if err != nil {
			return
		}

		switch f.Kind {
		case proto.KindReply, proto.KindFault:
			c.pmu.Lock()
			ch, ok := c.pending[f.Ref]
			delete(c.pending, f.Ref)
			c.pmu.Unlock()
			if ok {
				ch <- f
			}
		case proto.KindEvent:
			c.pmu.Lock()
			st, ok := c.streams[f.Ref]
			c.pmu.Unlock()
			if !ok {
				csr.Debug.Printf("Event for unknown stream %d", f.Ref)
				continue
			}
			var req proto.Request
			if err := proto.Parse(f.Body, &req); err != nil {
				csr.Debug.Printf("Malformed event: %s", err)
				continue
			}
			select {
			case st.events <- &req:
			case <-c.closed:
				return
			}
		case proto.KindStreamEnd:
			c.pmu.Lock()
			st, ok := c.streams[f.Ref]
			delete(c.streams, f.Ref)
			c.pmu.Unlock()
			if ok {
				close(st.events)
			}
		default:
			csr.Debug.Printf("Invalid frame kind %d", f.Kind)
		}
	}
}

// call issues one unary request and awaits its reply.
func (c *Client) call(kind uint8, body interface{}) (*proto.Frame, error) {
	id := atomic.AddUint64(&c.rid, 2) - 1
	ch := make(chan *proto.Frame, 1)
	c.pmu.Lock()
	c.pending[id] = ch
	c.pmu.Unlock()

	if err := c.send(id, kind, body); err != nil {
		c.pmu.Lock()
		delete(c.pending, id)
		c.pmu.Unlock()
		return nil, err
	}

	select {
	case f := <-ch:
		if f.Kind == proto.KindFault {
			var fault proto.Fault
			if err := proto.Parse(f.Body, &fault); err != nil {
				return nil, err
			}
			return nil, errors.New(fault.Text)
		}
		return f, nil
	case <-c.closed:
		return nil, csr.ErrClientDisconnected
	}
}

func (c *Client) send(id uint64, kind uint8, body interface{}) error {
	f, err := proto.NewFrame(id, 0, kind, body)
	if err != nil {
		return err
	}
	raw, err := proto.Encode(f)
	if err != nil {
		return err
	}

	defer c.iolock.Unlock()
	c.iolock.Lock()

	csr.Debug.Printf("> %s", raw)
	_, err = c.rwc.Write(raw)
	return err
}

// Host asks the server to create a session.
func (c *Client) Host(typ csr.SessionType, players uint8) (csr.SessionData, error) {
	f, err := c.call(proto.KindHostSession, proto.HostInfo{
		Type:        proto.WireType(typ),
		PlayerCount: players,
	})
	if err != nil {
		return csr.SessionData{}, err
	}
	var sd proto.SessionData
	if err := proto.Parse(f.Body, &sd); err != nil {
		return csr.SessionData{}, err
	}
	return proto.ParseSession(sd)
}

// List fetches the descriptors of every open session.
func (c *Client) List() ([]csr.SessionData, error) {
	f, err := c.call(proto.KindListSessions, struct{}{})
	if err != nil {
		return nil, err
	}
	var wire proto.Sessions
	if err := proto.Parse(f.Body, &wire); err != nil {
		return nil, err
	}
	list := make([]csr.SessionData, 0, len(wire.Data))
	for _, w := range wire.Data {
		sd, err := proto.ParseSession(w)
		if err != nil {
			return nil, err
		}
		list = append(list, sd)
	}
	return list, nil
}

// Join enters a session.
func (c *Client) Join(sid csr.SessionID, uid csr.UserID, name string) error {
	_, err := c.call(proto.KindJoinSession, proto.JoinInfo{
		SessionID: uint64(sid),
		UserID:    uint64(uid),
		UserName:  name,
	})
	return err
}

// StartSession is the explicit start hook.  Sessions begin on their
// own once full; this call only verifies the session exists.
func (c *Client) StartSession(sid csr.SessionID) error {
	_, err := c.call(proto.KindStartSession, proto.StartInfo{
		SessionID: uint64(sid),
	})
	return err
}

// Events opens the server event stream for (SID, UID) and dispatches
// each prompt to H.  The user must have joined the session first.
// The returned channel yields the terminal status once the stream
// ends: nil after a normal end of stream, otherwise the first error
// the handler or the transport produced.
func (c *Client) Events(sid csr.SessionID, uid csr.UserID, h Handler) (<-chan error, error) {
	id := atomic.AddUint64(&c.rid, 2) - 1
	st := &stream{
		er:     csr.EventRegister{Session: sid, User: uid},
		h:      h,
		events: make(chan *proto.Request, 100),
		done:   make(chan error, 1),
	}
	ch := make(chan *proto.Frame, 1)
	c.pmu.Lock()
	c.pending[id] = ch
	c.streams[id] = st
	c.pmu.Unlock()

	drop := func() {
		c.pmu.Lock()
		delete(c.pending, id)
		delete(c.streams, id)
		c.pmu.Unlock()
	}

	if err := c.send(id, proto.KindServerEvents, proto.EventRegister{
		SessionID: uint64(sid),
		UserID:    uint64(uid),
	}); err != nil {
		drop()
		return nil, err
	}

	select {
	case f := <-ch:
		if f.Kind == proto.KindFault {
			drop()
			var fault proto.Fault
			if err := proto.Parse(f.Body, &fault); err != nil {
				return nil, err
			}
			return nil, errors.New(fault.Text)
		}
	case <-c.closed:
		return nil, csr.ErrClientDisconnected
	}

	go c.dispatch(st)
	return st.done, nil
}

// dispatch runs one event stream: prompts are handled strictly in
// order, and each answer is posted back tagged with the stream's
// event register.
func (c *Client) dispatch(st *stream) {
	var failure error
	for w := range st.events {
		req, err := proto.ParseRequest(w)
		if err != nil {
			failure = err
			continue
		}

		resp, err := handle(st.h, req)
		if err != nil {
			failure = err
			resp = &csr.ClientError{Text: err.Error()}
		}
		if resp == nil {
			continue
		}

		csr.Debug.Printf("Responding with %s for user %d", resp, st.er.User)
		wire, err := proto.WireResponse(resp)
		if err != nil {
			failure = err
			break
		}
		if _, err := c.call(proto.KindRespond, proto.ClientEventResponse{
			Register: proto.EventRegister{
				SessionID: uint64(st.er.Session),
				UserID:    uint64(st.er.User),
			},
			Response: *wire,
		}); err != nil {
			failure = fmt.Errorf("failed to respond to server event: %w", err)
			break
		}
	}
	st.done <- failure
	close(st.done)
}

// handle invokes the handler method matching the prompt and wraps
// its answer, if the prompt expects one.
func handle(h Handler, req csr.ServerRequest) (csr.ClientResponse, error) {
	switch v := req.(type) {
	case csr.UserJoined:
		return nil, h.JoinInfo(v.Session, v.User, v.Name)
	case csr.Ping:
		text, err := h.Ping(v.Text)
		if err != nil {
			return nil, err
		}
		return csr.Pong{Text: text}, nil
	case csr.RollDice:
		nums, err := h.RollDice(v.Sides, v.Count)
		if err != nil {
			return nil, err
		}
		return csr.DiceGuess{Numbers: nums}, nil
	case csr.FlipCoin:
		coins, err := h.FlipCoin(v.Count)
		if err != nil {
			return nil, err
		}
		return csr.CoinGuess{Coins: coins}, nil
	case csr.Winner:
		return nil, h.Winner(v.User, v.Name)
	case csr.TryAgain:
		a, err := h.TryAgain()
		if err != nil {
			return nil, err
		}
		return csr.Again{Value: a}, nil
	case csr.ErrorText:
		return nil, h.Error(v.Text)
	default:
		return nil, fmt.Errorf("%w: %T", csr.ErrInvalidServerRequest, req)
	}
}
