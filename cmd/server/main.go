// Entry point
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

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	csr "go-csr"
	"go-csr/conf"
	"go-csr/server"
	"go-csr/session"
	"go-csr/web"
)

// Default file name for the configuration file
const defconf = "csr.toml"

func main() {
	var (
		confFile = flag.String("conf", defconf, "Name of configuration file")
		dumpConf = flag.Bool("dump-config", false, "Dump default configuration")
		debug    = flag.Bool("debug", false, "Enable debug output")
	)

	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Too many arguments passed to %s.\nUsage:\n",
			os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *debug {
		csr.Debug.SetOutput(os.Stderr)
	}

	// Load the configuration from disk (if available)
	config, err := conf.Open(*confFile)
	if err != nil {
		if !os.IsNotExist(err) || *confFile != defconf {
			log.Fatal(err)
		}
		config = conf.Default()
	}
	csr.Debug.Println("Debug logging has been enabled")

	// Dump the configuration onto the disk if requested
	if *dumpConf {
		err = config.Dump(os.Stdout)
		if err != nil {
			log.Fatalln("Failed to dump default configuration:", err)
		}
		os.Exit(0)
	}

	// The coordinator and the RPC surface on top of it
	reg := session.MakeRegistry(nil)
	srv := server.MakeServer(reg)

	// Allow TCP connections
	server.Prepare(config, srv)

	// Enable the web interface
	web.Prepare(config, reg, srv)

	// Launch the server
	config.Start()
}
