// Session registry tests
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

package session

import (
	"sync"
	"testing"
	"time"

	csr "go-csr"
	"go-csr/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHostAllocatesMonotonicIDs(t *testing.T) {
	r := MakeRegistry(nil)
	var last csr.SessionID
	for i := 0; i < 10; i++ {
		sd := r.Host(csr.DICE, 2)
		assert.Greater(t, sd.Session, last)
		last = sd.Session
	}
	assert.Equal(t, csr.SessionID(10), last)
}

func TestHostConcurrentIDsAreUnique(t *testing.T) {
	r := MakeRegistry(nil)

	const n = 64
	var (
		mu   sync.Mutex
		seen = make(map[csr.SessionID]bool, n)
	)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			sd := r.Host(csr.COIN, 2)
			mu.Lock()
			defer mu.Unlock()
			if seen[sd.Session] {
				t.Errorf("Duplicate session id %d", sd.Session)
			}
			seen[sd.Session] = true
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, n)
}

func TestHostedSessionStartsEmpty(t *testing.T) {
	r := MakeRegistry(nil)
	sd := r.Host(csr.COIN, 3)
	assert.Equal(t, csr.COIN, sd.Type)
	assert.NotNil(t, sd.Users)
	assert.Empty(t, sd.Users)
}

func TestListSnapshotsSessions(t *testing.T) {
	r := MakeRegistry(nil)
	assert.Empty(t, r.List())

	a := r.Host(csr.DICE, 2)
	b := r.Host(csr.COIN, 2)
	require.NoError(t, r.Join(a.Session, 7, "ada"))

	list := r.List()
	require.Len(t, list, 2)
	byID := make(map[csr.SessionID]csr.SessionData, 2)
	for _, sd := range list {
		byID[sd.Session] = sd
	}
	assert.Equal(t, []string{"ada"}, byID[a.Session].Users)
	assert.Empty(t, byID[b.Session].Users)
}

func TestJoinUnknownSession(t *testing.T) {
	r := MakeRegistry(nil)
	err := r.Join(42, 1, "ada")
	assert.ErrorIs(t, err, csr.ErrSessionNotFound)
}

func TestStartUnknownSession(t *testing.T) {
	r := MakeRegistry(nil)
	assert.ErrorIs(t, r.Start(42), csr.ErrSessionNotFound)

	sd := r.Host(csr.DICE, 2)
	assert.NoError(t, r.Start(sd.Session))
}

func TestDuplicateJoin(t *testing.T) {
	r := MakeRegistry(nil)
	sd := r.Host(csr.DICE, 3)
	require.NoError(t, r.Join(sd.Session, 1, "ada"))
	err := r.Join(sd.Session, 1, "ada")
	assert.ErrorIs(t, err, csr.ErrUserAlreadyInSession)
}

func TestRegisterRequiresJoin(t *testing.T) {
	r := MakeRegistry(nil)
	sd := r.Host(csr.DICE, 2)
	err := r.Register(sd.Session, 1, event.MakeConduit())
	assert.ErrorIs(t, err, csr.ErrUserNotInSession)
}

func TestJoinNotifiesEarlierStreams(t *testing.T) {
	r := MakeRegistry(nil)
	sd := r.Host(csr.DICE, 3)
	require.NoError(t, r.Join(sd.Session, 1, "ada"))

	cd := event.MakeConduit()
	defer cd.Close()
	require.NoError(t, r.Register(sd.Session, 1, cd))

	require.NoError(t, r.Join(sd.Session, 2, "bob"))
	select {
	case req := <-cd.Prompts():
		assert.Equal(t, csr.UserJoined{
			Session: sd.Session, User: 2, Name: "bob",
		}, req)
	case <-time.After(time.Second):
		t.Fatal("No join notification arrived")
	}
}

// The join that completes the quorum starts the game; the session
// disappears from the registry once the game is over.
func TestQuorumStartsAndTearsDown(t *testing.T) {
	r := MakeRegistry(&script{
		sides: 6, count: 1,
		rolls: []uint8{3},
	})
	sd := r.Host(csr.DICE, 2)

	require.NoError(t, r.Join(sd.Session, 1, "ada"))
	require.NoError(t, r.Join(sd.Session, 2, "bob"))

	// The loop must block until both event streams are open
	assert.Len(t, r.List(), 1)

	ada := newPlayer(t, []uint8{3}, nil, false)
	bob := newPlayer(t, []uint8{1}, nil, false)
	require.NoError(t, r.Register(sd.Session, 1, ada.cd))
	require.NoError(t, r.Register(sd.Session, 2, bob.cd))

	assert.Equal(t, "ada", ada.winner(t))
	assert.Equal(t, "ada", bob.winner(t))

	awaitEmpty(t, r)
	select {
	case <-ada.cd.Done():
	case <-time.After(time.Second):
		t.Fatal("Conduit was not closed after teardown")
	}
}

func awaitEmpty(t *testing.T, r *Registry) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(r.List()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Session was not removed from the registry")
}
