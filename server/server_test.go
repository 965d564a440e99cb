// Connection handling tests
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

package server

import (
	"bufio"
	"net"
	"testing"

	"go-csr/proto"
	"go-csr/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire connects a raw frame client to a fresh server over a pipe.
type wire struct {
	conn net.Conn
	r    *bufio.Reader
}

func makeWire(t *testing.T) *wire {
	t.Helper()
	srv := MakeServer(session.MakeRegistry(nil))
	client, server := net.Pipe()
	go srv.Handle(server)
	t.Cleanup(func() { client.Close() })
	return &wire{conn: client, r: bufio.NewReader(client)}
}

func (w *wire) send(t *testing.T, id uint64, kind uint8, body interface{}) {
	t.Helper()
	f, err := proto.NewFrame(id, 0, kind, body)
	require.NoError(t, err)
	raw, err := proto.Encode(f)
	require.NoError(t, err)
	_, err = w.conn.Write(raw)
	require.NoError(t, err)
}

func (w *wire) recv(t *testing.T) *proto.Frame {
	t.Helper()
	f, err := proto.Read(w.r)
	require.NoError(t, err)
	return f
}

func TestHostReply(t *testing.T) {
	w := makeWire(t)
	w.send(t, 1, proto.KindHostSession, proto.HostInfo{
		Type:        proto.TypeDice,
		PlayerCount: 2,
	})

	f := w.recv(t)
	assert.Equal(t, proto.KindReply, f.Kind)
	assert.Equal(t, uint64(1), f.Ref)

	var sd proto.SessionData
	require.NoError(t, proto.Parse(f.Body, &sd))
	assert.Equal(t, uint64(1), sd.SessionID)
}

func TestMalformedLineIsSkipped(t *testing.T) {
	w := makeWire(t)
	_, err := w.conn.Write([]byte("{not json\n"))
	require.NoError(t, err)

	// The connection survives and keeps serving requests
	w.send(t, 3, proto.KindListSessions, struct{}{})
	f := w.recv(t)
	assert.Equal(t, proto.KindReply, f.Kind)
	assert.Equal(t, uint64(3), f.Ref)
}

func TestHostFaultOnUnknownType(t *testing.T) {
	w := makeWire(t)
	w.send(t, 1, proto.KindHostSession, proto.HostInfo{
		Type:        9,
		PlayerCount: 2,
	})

	f := w.recv(t)
	assert.Equal(t, proto.KindFault, f.Kind)
	assert.Equal(t, uint64(1), f.Ref)
}

func TestHostFaultOnZeroPlayers(t *testing.T) {
	w := makeWire(t)
	w.send(t, 1, proto.KindHostSession, proto.HostInfo{
		Type: proto.TypeCoin,
	})

	f := w.recv(t)
	assert.Equal(t, proto.KindFault, f.Kind)
}

func TestRespondWithoutStream(t *testing.T) {
	w := makeWire(t)
	w.send(t, 1, proto.KindRespond, proto.ClientEventResponse{
		Register: proto.EventRegister{SessionID: 1, UserID: 1},
		Response: proto.Response{
			Tag:  proto.TagPong,
			Body: []byte(`{"text": "pong"}`),
		},
	})

	f := w.recv(t)
	assert.Equal(t, proto.KindFault, f.Kind)

	var fault proto.Fault
	require.NoError(t, proto.Parse(f.Body, &fault))
	assert.Contains(t, fault.Text, "no event stream")
}

func TestEventsFaultForUnjoinedUser(t *testing.T) {
	w := makeWire(t)
	w.send(t, 1, proto.KindHostSession, proto.HostInfo{
		Type:        proto.TypeCoin,
		PlayerCount: 2,
	})
	require.Equal(t, proto.KindReply, w.recv(t).Kind)

	w.send(t, 3, proto.KindServerEvents, proto.EventRegister{
		SessionID: 1,
		UserID:    7,
	})
	f := w.recv(t)
	assert.Equal(t, proto.KindFault, f.Kind)
	assert.Equal(t, uint64(3), f.Ref)
}
