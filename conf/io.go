// Configuration loading and dumping
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
	"io"
	"os"

	csr "go-csr"

	"github.com/BurntSushi/toml"
)

// On-disk representation
type conf struct {
	Debug bool `toml:"debug"`
	Proto struct {
		Port uint `toml:"port"`
	} `toml:"proto"`
	Web struct {
		Enabled   bool `toml:"enabled"`
		Port      uint `toml:"port"`
		Websocket bool `toml:"websocket"`
	} `toml:"web"`
}

// Parse a configuration from R into a Conf
func load(r io.Reader) (*Conf, error) {
	var data conf
	data.Web.Enabled = true
	data.Web.Websocket = true
	if _, err := toml.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}

	c := defaultConfig
	if data.Debug {
		csr.Debug.SetOutput(os.Stderr)
	}
	if data.Proto.Port != 0 {
		c.TCPPort = uint16(data.Proto.Port)
	}
	c.WebInterface = data.Web.Enabled
	c.WebSocket = data.Web.Websocket
	if data.Web.Port != 0 {
		c.WebPort = uint16(data.Web.Port)
	}

	return &c, nil
}

// Open a configuration file and return it
func Open(name string) (*Conf, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return load(file)
}

// Return a copy of the default configuration
func Default() *Conf {
	c := defaultConfig
	return &c
}

// Serialise the configuration into a writer
func (c *Conf) Dump(wr io.Writer) error {
	var data conf

	data.Proto.Port = uint(c.TCPPort)
	data.Web.Enabled = c.WebInterface
	data.Web.Port = uint(c.WebPort)
	data.Web.Websocket = c.WebSocket

	return toml.NewEncoder(wr).Encode(data)
}
