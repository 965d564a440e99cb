// TCP interface
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
	"fmt"
	"net"
	"strconv"
	"strings"

	csr "go-csr"
	"go-csr/conf"
)

type Listener struct {
	conf *conf.Conf
	srv  *Server
	conn net.Listener
	port uint16
}

func (*Listener) String() string {
	return "TCP Handler"
}

// Initialise a listener, unless it has already been initialised
func (t *Listener) init() {
	if t.conn != nil {
		return
	}

	var err error
	tcp := fmt.Sprintf(":%d", t.port)
	t.conn, err = net.Listen("tcp", tcp)
	if err != nil {
		t.conf.Log.Fatal(err)
	}
	if t.port == 0 {
		// Extract the port the operating system bound the listener
		// to, since port 0 is redirected to a "random" open port
		addr := t.conn.Addr().String()
		i := strings.LastIndexByte(addr, ':')
		if i == -1 {
			t.conf.Log.Fatal("Invalid address ", addr)
		}
		port, err := strconv.ParseUint(addr[i+1:], 10, 16)
		if err != nil {
			t.conf.Log.Fatal("Unexpected error ", err)
		}
		t.port = uint16(port)
	}
}

func (t *Listener) Start() {
	t.init()

	csr.Debug.Printf("Accepting connections on :%d", t.port)
	for {
		conn, err := t.conn.Accept()
		if err != nil {
			break
		}

		go t.srv.Handle(conn)
	}
}

func (t *Listener) Port() uint16 {
	return t.port
}

func (t *Listener) Shutdown() {
	if err := t.conn.Close(); err != nil {
		t.conf.Log.Print(err)
	}
}

func MakeListener(conf *conf.Conf, srv *Server, port uint16) *Listener {
	return &Listener{conf: conf, srv: srv, port: port}
}

// StartListener launches a listener immediately, for tests that need
// a live port before the manager lifecycle begins.
func StartListener(conf *conf.Conf, srv *Server) *Listener {
	l := &Listener{conf: conf, srv: srv}
	l.init()
	go l.Start()
	return l
}

func Prepare(conf *conf.Conf, srv *Server) {
	conf.Register(MakeListener(conf, srv, conf.TCPPort))
}
