// Session registry and admission
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

// Package session owns the set of live sessions and drives the game
// loop of each one.
package session

import (
	"log"
	"sync"
	"sync/atomic"

	csr "go-csr"
	"go-csr/event"
)

// Session is the state of one hosted session.  Users are inserted on
// join, conduits when their event stream opens; both maps are moved
// out when the game starts.
type Session struct {
	mu   sync.RWMutex
	cond *sync.Cond

	id      csr.SessionID
	typ     csr.SessionType
	players uint8

	users    map[csr.UserID]csr.UserData
	order    []csr.UserID // join order, fixes polling order
	conduits map[csr.UserID]*event.Conduit
	running  bool
}

func (s *Session) data() csr.SessionData {
	users := make([]string, 0, len(s.order))
	for _, uid := range s.order {
		users = append(users, s.users[uid].Name)
	}
	return csr.SessionData{Session: s.id, Type: s.typ, Users: users}
}

// Registry is the process-wide session table shared by all RPC
// handlers.
type Registry struct {
	mu       sync.RWMutex
	sessions map[csr.SessionID]*Session

	next uint64 // last allocated session id
	src  Source
}

func MakeRegistry(src Source) *Registry {
	if src == nil {
		src = mathSource{}
	}
	return &Registry{
		sessions: make(map[csr.SessionID]*Session),
		src:      src,
	}
}

// Host allocates the next session id, creates an empty session and
// returns its descriptor.
func (r *Registry) Host(typ csr.SessionType, players uint8) csr.SessionData {
	sid := csr.SessionID(atomic.AddUint64(&r.next, 1))
	s := &Session{
		id:       sid,
		typ:      typ,
		players:  players,
		users:    make(map[csr.UserID]csr.UserData),
		conduits: make(map[csr.UserID]*event.Conduit),
	}
	s.cond = sync.NewCond(&s.mu)

	r.mu.Lock()
	r.sessions[sid] = s
	r.mu.Unlock()

	csr.Debug.Printf("Hosted session %d (%s, %d players)", sid, typ, players)
	return csr.SessionData{Session: sid, Type: typ, Users: []string{}}
}

// List snapshots every live session.
func (r *Registry) List() []csr.SessionData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]csr.SessionData, 0, len(r.sessions))
	for _, s := range r.sessions {
		s.mu.RLock()
		ret = append(ret, s.data())
		s.mu.RUnlock()
	}
	return ret
}

func (r *Registry) get(sid csr.SessionID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	if !ok {
		return nil, csr.SessionNotFound(sid)
	}
	return s, nil
}

func (r *Registry) remove(sid csr.SessionID) {
	r.mu.Lock()
	delete(r.sessions, sid)
	r.mu.Unlock()
}

// Join inserts a user into a session.  The join that completes the
// quorum transitions the session to running and spawns the game loop;
// the call itself returns immediately.
func (r *Registry) Join(sid csr.SessionID, uid csr.UserID, name string) error {
	s, err := r.get(sid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if _, ok := s.users[uid]; ok {
		s.mu.Unlock()
		return csr.UserAlreadyInSession(uid, sid)
	}
	s.users[uid] = csr.UserData{Name: name}
	s.order = append(s.order, uid)
	full := len(s.users) == int(s.players) && !s.running
	if full {
		s.running = true
	}
	watchers := make(map[csr.UserID]*event.Conduit, len(s.conduits))
	for id, cd := range s.conduits {
		watchers[id] = cd
	}
	s.mu.Unlock()

	// Tell everyone who already opened a stream about the newcomer.
	for id, cd := range watchers {
		if err := cd.UserJoined(sid, uid, name); err != nil {
			csr.Debug.Printf("Lost join notice for user %d: %s", id, err)
		}
	}

	if full {
		log.Printf("Game is starting for session %d", sid)
		go r.run(s)
	}
	return nil
}

// Register attaches a user's event conduit to their session.  The
// user must have joined first.  Re-registering replaces the previous
// conduit, which covers a client that reconnects before the game
// starts.
func (r *Registry) Register(sid csr.SessionID, uid csr.UserID, cd *event.Conduit) error {
	s, err := r.get(sid)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[uid]; !ok {
		return csr.UserNotInSession(uid, sid)
	}
	s.conduits[uid] = cd
	s.cond.Broadcast()
	return nil
}

// Start is the explicit start hook.  Quorum alone drives the game
// loop; this only checks that the session exists.
func (r *Registry) Start(sid csr.SessionID) error {
	_, err := r.get(sid)
	return err
}
