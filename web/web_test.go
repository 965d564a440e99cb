// Web interface tests
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

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	csr "go-csr"
	"go-csr/client"
	"go-csr/conf"
	"go-csr/proto"
	"go-csr/server"
	"go-csr/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeWeb(t *testing.T) (*Web, *session.Registry) {
	t.Helper()
	reg := session.MakeRegistry(nil)
	srv := server.MakeServer(reg)
	return MakeWeb(conf.Default(), reg, srv), reg
}

func TestIndexRendersSessions(t *testing.T) {
	w, reg := makeWeb(t)
	reg.Host(csr.DICE, 2)
	require.NoError(t, reg.Join(1, 7, "ada"))

	rec := httptest.NewRecorder()
	w.showIndex(rec, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dice")
	assert.Contains(t, rec.Body.String(), "ada")
}

func TestIndexWithoutSessions(t *testing.T) {
	w, _ := makeWeb(t)
	rec := httptest.NewRecorder()
	w.showIndex(rec, httptest.NewRequest("GET", "/", nil))
	assert.Contains(t, rec.Body.String(), "No session")
}

func TestListSessionsEndpoint(t *testing.T) {
	w, reg := makeWeb(t)
	reg.Host(csr.COIN, 3)

	rec := httptest.NewRecorder()
	w.listSessions(rec, httptest.NewRequest("GET", "/sessions", nil))

	assert.Equal(t, "application/json",
		rec.Header().Get("Content-Type"))

	var wire proto.Sessions
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&wire))
	require.Len(t, wire.Data, 1)
	assert.Equal(t, proto.TypeCoin, wire.Data[0].Type)
	assert.NotNil(t, wire.Data[0].Users)
}

// The websocket endpoint serves the same protocol as the TCP port.
func TestWebsocketTransport(t *testing.T) {
	reg := session.MakeRegistry(nil)
	srv := server.MakeServer(reg)

	ts := httptest.NewServer(http.HandlerFunc(upgrader(srv)))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	c, err := client.Dial(ctx, url)
	require.NoError(t, err)
	defer c.Close()

	sd, err := c.Host(csr.DICE, 2)
	require.NoError(t, err)
	assert.Equal(t, csr.SessionID(1), sd.Session)

	list, err := c.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
