// Event conduits
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

// Package event carries prompts and responses between the session
// coordinator and one connected user.
package event

import (
	"errors"
	"sync"

	csr "go-csr"
)

// Queue capacity in either direction.
const backlog = 100

var errQueueFull = errors.New("response queue full")

// Conduit is the pair of bounded queues serving one joined user: an
// outbound queue of server prompts and an inbound queue of the
// matching responses.  The request/response methods enqueue a prompt
// and await a single answer; at most one of them may be in flight at
// a time, which the coordinator guarantees by polling users
// sequentially.
type Conduit struct {
	out  chan csr.ServerRequest
	in   chan csr.ClientResponse
	done chan struct{}

	close sync.Once
	imu   sync.Mutex
	icl   bool
}

func MakeConduit() *Conduit {
	return &Conduit{
		out:  make(chan csr.ServerRequest, backlog),
		in:   make(chan csr.ClientResponse, backlog),
		done: make(chan struct{}),
	}
}

// Prompts exposes the outbound queue to the stream pump.
func (c *Conduit) Prompts() <-chan csr.ServerRequest {
	return c.out
}

// Done is closed once the conduit has been torn down from either
// side.
func (c *Conduit) Done() <-chan struct{} {
	return c.done
}

// Deliver routes an inbound response onto the conduit without
// blocking.  The call fails if the user's stream has been torn down
// or the queue is full.
func (c *Conduit) Deliver(r csr.ClientResponse) error {
	c.imu.Lock()
	defer c.imu.Unlock()
	if c.icl {
		return csr.ErrClientDisconnected
	}
	select {
	case c.in <- r:
		return nil
	default:
		return errQueueFull
	}
}

// Close tears the conduit down.  Any blocked or future call fails
// with ClientDisconnected.  Safe to call from either side, more than
// once.
func (c *Conduit) Close() {
	c.close.Do(func() {
		close(c.done)
	})
	c.imu.Lock()
	defer c.imu.Unlock()
	if !c.icl {
		c.icl = true
		close(c.in)
	}
}

// send enqueues a prompt, blocking when the queue is full so that a
// slow client backpressures the game loop.
func (c *Conduit) send(r csr.ServerRequest) error {
	select {
	case <-c.done:
		return csr.ErrClientDisconnected
	default:
	}
	select {
	case c.out <- r:
		return nil
	case <-c.done:
		return csr.ErrClientDisconnected
	}
}

// poll awaits the next inbound response.
func (c *Conduit) poll() (csr.ClientResponse, error) {
	r, ok := <-c.in
	if !ok {
		return nil, csr.ErrClientDisconnected
	}
	if e, isErr := r.(*csr.ClientError); isErr {
		return nil, e
	}
	return r, nil
}

// Notifications

func (c *Conduit) UserJoined(sid csr.SessionID, uid csr.UserID, name string) error {
	return c.send(csr.UserJoined{Session: sid, User: uid, Name: name})
}

func (c *Conduit) Winner(uid csr.UserID, name string) error {
	return c.send(csr.Winner{User: uid, Name: name})
}

func (c *Conduit) Error(text string) error {
	return c.send(csr.ErrorText{Text: text})
}

// Request/response prompts

func (c *Conduit) Ping(text string) (string, error) {
	if err := c.send(csr.Ping{Text: text}); err != nil {
		return "", err
	}
	r, err := c.poll()
	if err != nil {
		return "", err
	}
	p, ok := r.(csr.Pong)
	if !ok {
		return "", mismatch(r)
	}
	return p.Text, nil
}

func (c *Conduit) RollDice(sides, count uint8) ([]uint8, error) {
	if err := c.send(csr.RollDice{Sides: sides, Count: count}); err != nil {
		return nil, err
	}
	r, err := c.poll()
	if err != nil {
		return nil, err
	}
	g, ok := r.(csr.DiceGuess)
	if !ok {
		return nil, mismatch(r)
	}
	return g.Numbers, nil
}

func (c *Conduit) FlipCoin(count uint8) ([]csr.Coin, error) {
	if err := c.send(csr.FlipCoin{Count: count}); err != nil {
		return nil, err
	}
	r, err := c.poll()
	if err != nil {
		return nil, err
	}
	g, ok := r.(csr.CoinGuess)
	if !ok {
		return nil, mismatch(r)
	}
	return g.Coins, nil
}

func (c *Conduit) TryAgain() (bool, error) {
	if err := c.send(csr.TryAgain{}); err != nil {
		return false, err
	}
	r, err := c.poll()
	if err != nil {
		return false, err
	}
	a, ok := r.(csr.Again)
	if !ok {
		return false, mismatch(r)
	}
	return a.Value, nil
}

func mismatch(r csr.ClientResponse) error {
	csr.Debug.Printf("Unexpected response %s", r)
	return csr.ErrInvalidClientResponse
}
