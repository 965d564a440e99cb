// Manager lifecycle
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

package conf

import (
	"fmt"
	"os"
	"os/signal"

	csr "go-csr"
)

// Manager is a subsystem with its own lifecycle, registered before
// the server starts.
type Manager interface {
	fmt.Stringer
	Start()
	Shutdown()
}

func (c *Conf) Register(m Manager) {
	if c.run {
		panic(fmt.Sprintf("Late register: %#v", m))
	}
	c.man = append(c.man, m)
}

// Start launches every registered manager and blocks until an
// interrupt requests an orderly shutdown.
func (c *Conf) Start() {
	for _, m := range c.man {
		csr.Debug.Printf("Starting %s", m)
		go m.Start()
	}
	c.run = true

	intr := make(chan os.Signal, 1)
	signal.Notify(intr, os.Interrupt)
	<-intr
	c.Log.Println("Caught interrupt")

	csr.Debug.Println("Waiting for managers to shutdown...")
	for i := len(c.man) - 1; i >= 0; i-- {
		m := c.man[i]
		csr.Debug.Printf("Shutting %s down", m)
		m.Shutdown()
	}
}
