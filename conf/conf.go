// Configuration specification and management
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
	"log"
)

// Conf is the public configuration.
type Conf struct {
	Log *log.Logger

	// Protocol configuration
	TCPPort uint16 // Port for accepting native connections

	// Website configuration
	WebInterface bool   // Has the web interface been enabled?
	WebPort      uint16 // Port that the web server listens on
	WebSocket    bool   // Are websocket connections enabled?

	// Internal state
	man []Manager // List of system managers
	run bool      // Running flag
}

// Configuration object used by default
var defaultConfig = Conf{
	Log: log.Default(),

	TCPPort: 5555,

	WebInterface: true,
	WebPort:      8080,
	WebSocket:    true,
}
