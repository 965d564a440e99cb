// Web interface
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
	"fmt"
	"html/template"
	"net/http"
	"time"

	csr "go-csr"
	"go-csr/conf"
	"go-csr/proto"
	"go-csr/server"
	"go-csr/session"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

var index = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head><title>go-csr</title></head>
<body>
<h1>Sessions</h1>
{{if .}}<table>
<tr><th>Id</th><th>Type</th><th>Users</th></tr>
{{range .}}<tr>
<td>{{.Session}}</td>
<td>{{.Type}}</td>
<td>{{range .Users}}{{.}} {{end}}</td>
</tr>{{end}}
</table>{{else}}<p>No session is currently open.</p>{{end}}
</body>
</html>
`))

// Web serves the browser side: the session index and the websocket
// wrapping of the wire protocol.
type Web struct {
	conf *conf.Conf
	reg  *session.Registry
	srv  *server.Server
	http *http.Server
}

func (*Web) String() string {
	return "Web Interface"
}

func MakeWeb(c *conf.Conf, reg *session.Registry, srv *server.Server) *Web {
	return &Web{conf: c, reg: reg, srv: srv}
}

func (w *Web) Start() {
	r := mux.NewRouter()
	r.HandleFunc("/", w.showIndex).Methods("GET")
	r.HandleFunc("/sessions", w.listSessions).Methods("GET")
	if w.conf.WebSocket {
		r.HandleFunc("/socket", upgrader(w.srv))
	}

	w.http = &http.Server{
		Addr:    fmt.Sprintf(":%d", w.conf.WebPort),
		Handler: handlers.LoggingHandler(csr.Debug.Writer(), r),
	}
	csr.Debug.Printf("Listening via HTTP on %s", w.http.Addr)
	err := w.http.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		w.conf.Log.Print(err)
	}
}

func (w *Web) Shutdown() {
	if w.http == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.http.Shutdown(ctx); err != nil {
		w.conf.Log.Print(err)
	}
}

func (w *Web) showIndex(wr http.ResponseWriter, _ *http.Request) {
	if err := index.Execute(wr, w.reg.List()); err != nil {
		w.conf.Log.Print(err)
	}
}

func (w *Web) listSessions(wr http.ResponseWriter, _ *http.Request) {
	list := w.reg.List()
	data := make([]proto.SessionData, 0, len(list))
	for _, sd := range list {
		data = append(data, proto.WireSession(sd))
	}

	wr.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(wr).Encode(proto.Sessions{Data: data}); err != nil {
		w.conf.Log.Print(err)
	}
}

func Prepare(c *conf.Conf, reg *session.Registry, srv *server.Server) {
	if !c.WebInterface {
		return
	}
	c.Register(MakeWeb(c, reg, srv))
}
