// Connection handling
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

// Package server exposes the session operations over the wire
// protocol.  A connection may issue any number of unary requests and
// open any number of event streams; responses to stream prompts are
// routed through a table keyed by (session, user), so they may even
// arrive on a different connection than the stream itself.
package server

import (
	"bufio"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"

	csr "go-csr"
	"go-csr/event"
	"go-csr/proto"
	"go-csr/session"
)

type Server struct {
	reg *session.Registry

	// Routing table for inbound responses.  This is the only
	// coupling between the event stream and the respond operation;
	// the coordinator never sees it.
	rmu    sync.Mutex
	routes map[csr.EventRegister]*event.Conduit
}

func MakeServer(reg *session.Registry) *Server {
	return &Server{
		reg:    reg,
		routes: make(map[csr.EventRegister]*event.Conduit),
	}
}

func (s *Server) route(er csr.EventRegister, cd *event.Conduit) {
	s.rmu.Lock()
	s.routes[er] = cd
	s.rmu.Unlock()
}

func (s *Server) lookup(er csr.EventRegister) (*event.Conduit, bool) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	cd, ok := s.routes[er]
	return cd, ok
}

// drop removes a routing entry, unless it has already been replaced
// by a newer conduit.
func (s *Server) drop(er csr.EventRegister, cd *event.Conduit) {
	s.rmu.Lock()
	if s.routes[er] == cd {
		delete(s.routes, er)
	}
	s.rmu.Unlock()
}

// conn wraps one network connection
type conn struct {
	srv *Server
	rwc io.ReadWriteCloser

	iolock sync.Mutex // write lock
	rid    uint64     // server-issued frame ids are even

	smu  sync.Mutex
	subs map[csr.EventRegister]*event.Conduit
}

// Handle reads frames from RWC until the connection dies, then tears
// down every event stream it opened.
func (s *Server) Handle(rwc io.ReadWriteCloser) {
	c := &conn{
		srv:  s,
		rwc:  rwc,
		subs: make(map[csr.EventRegister]*event.Conduit),
	}
	defer rwc.Close()

	r := bufio.NewReader(rwc)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			break
		}
		csr.Debug.Printf("< %s", line)

		f, err := proto.Decode(line)
		if err != nil {
			csr.Debug.Printf("Malformed input: %s", err)
			continue
		}
		c.interpret(f)
	}

	c.smu.Lock()
	subs := c.subs
	c.subs = nil
	c.smu.Unlock()
	for er, cd := range subs {
		cd.Close()
		s.drop(er, cd)
	}
	csr.Debug.Printf("Closed connection %p", rwc)
}

// interpret evaluates a single request frame
func (c *conn) interpret(f *proto.Frame) {
	switch f.Kind {
	case proto.KindHostSession:
		var hi proto.HostInfo
		if err := proto.Parse(f.Body, &hi); err != nil {
			c.fault(f.ID, err)
			return
		}
		typ, err := proto.ParseType(hi.Type)
		if err != nil {
			c.fault(f.ID, err)
			return
		}
		if hi.PlayerCount == 0 {
			c.fault(f.ID, errors.New("player count must be at least 1"))
			return
		}
		sd := c.srv.reg.Host(typ, hi.PlayerCount)
		c.reply(f.ID, proto.WireSession(sd))
	case proto.KindListSessions:
		list := c.srv.reg.List()
		wire := proto.Sessions{Data: make([]proto.SessionData, 0, len(list))}
		for _, sd := range list {
			wire.Data = append(wire.Data, proto.WireSession(sd))
		}
		c.reply(f.ID, wire)
	case proto.KindJoinSession:
		var ji proto.JoinInfo
		if err := proto.Parse(f.Body, &ji); err != nil {
			c.fault(f.ID, err)
			return
		}
		err := c.srv.reg.Join(csr.SessionID(ji.SessionID),
			csr.UserID(ji.UserID), ji.UserName)
		if err != nil {
			c.fault(f.ID, err)
			return
		}
		c.reply(f.ID, nil)
	case proto.KindStartSession:
		var si proto.StartInfo
		if err := proto.Parse(f.Body, &si); err != nil {
			c.fault(f.ID, err)
			return
		}
		if err := c.srv.reg.Start(csr.SessionID(si.SessionID)); err != nil {
			c.fault(f.ID, err)
			return
		}
		c.reply(f.ID, nil)
	case proto.KindServerEvents:
		var er proto.EventRegister
		if err := proto.Parse(f.Body, &er); err != nil {
			c.fault(f.ID, err)
			return
		}
		c.subscribe(f.ID, csr.EventRegister{
			Session: csr.SessionID(er.SessionID),
			User:    csr.UserID(er.UserID),
		})
	case proto.KindRespond:
		var cer proto.ClientEventResponse
		if err := proto.Parse(f.Body, &cer); err != nil {
			c.fault(f.ID, err)
			return
		}
		resp, err := proto.ParseResponse(&cer.Response)
		if err != nil {
			c.fault(f.ID, err)
			return
		}
		er := csr.EventRegister{
			Session: csr.SessionID(cer.Register.SessionID),
			User:    csr.UserID(cer.Register.UserID),
		}
		cd, ok := c.srv.lookup(er)
		if !ok {
			c.fault(f.ID, errors.New("no event stream registered for "+er.String()))
			return
		}
		if err := cd.Deliver(resp); err != nil {
			c.fault(f.ID, err)
			return
		}
		c.reply(f.ID, nil)
	default:
		csr.Debug.Printf("Invalid frame kind %d", f.Kind)
	}
}

// subscribe opens an event stream for ER: it allocates a conduit,
// hands it to the coordinator, publishes it in the routing table and
// pumps outbound prompts onto the connection until the session tears
// the conduit down.
func (c *conn) subscribe(sub uint64, er csr.EventRegister) {
	cd := event.MakeConduit()
	if err := c.srv.reg.Register(er.Session, er.User, cd); err != nil {
		c.fault(sub, err)
		return
	}
	c.srv.route(er, cd)
	c.smu.Lock()
	c.subs[er] = cd
	c.smu.Unlock()
	c.reply(sub, nil)
	go c.pump(sub, er, cd)
}

func (c *conn) pump(sub uint64, er csr.EventRegister, cd *event.Conduit) {
	for {
		select {
		case req := <-cd.Prompts():
			c.push(sub, req)
		case <-cd.Done():
			// flush prompts that were queued before teardown
			for {
				select {
				case req := <-cd.Prompts():
					c.push(sub, req)
				default:
					c.srv.drop(er, cd)
					c.smu.Lock()
					if c.subs != nil {
						delete(c.subs, er)
					}
					c.smu.Unlock()
					c.send(sub, proto.KindStreamEnd, nil)
					return
				}
			}
		}
	}
}

func (c *conn) push(sub uint64, req csr.ServerRequest) {
	wire, err := proto.WireRequest(req)
	if err != nil {
		log.Printf("Could not send server event: %s", err)
		return
	}
	c.send(sub, proto.KindEvent, wire)
}

func (c *conn) reply(ref uint64, body interface{}) {
	c.send(ref, proto.KindReply, body)
}

func (c *conn) fault(ref uint64, err error) {
	c.send(ref, proto.KindFault, proto.Fault{Text: err.Error()})
}

// send writes one frame, keeping concurrent writers from interleaving
func (c *conn) send(ref uint64, kind uint8, body interface{}) {
	id := atomic.AddUint64(&c.rid, 2)
	f, err := proto.NewFrame(id, ref, kind, body)
	if err != nil {
		csr.Debug.Print(err)
		return
	}
	raw, err := proto.Encode(f)
	if err != nil {
		csr.Debug.Print(err)
		return
	}

	defer c.iolock.Unlock()
	c.iolock.Lock()

	csr.Debug.Printf("> %s", raw)
	if _, err := c.rwc.Write(raw); err != nil {
		csr.Debug.Print(err)
	}
}
