// Interactive client
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
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	csr "go-csr"
	"go-csr/client"
)

func main() {
	var (
		address = flag.String("address", "localhost:5555", "Server address")
		uid     = flag.Uint64("uid", 0, "User identifier")
		name    = flag.String("name", "", "User name")
		debug   = flag.Bool("debug", false, "Enable debug output")
	)
	flag.Parse()

	if *debug {
		csr.Debug.SetOutput(os.Stderr)
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "A user name is required (-name)")
		os.Exit(1)
	}

	cli, err := client.Dial(context.Background(), *address)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cli.Close()

	fmt.Println("Connected to server at", *address)
	fmt.Println("Type ? for help")

	user := csr.UserID(*uid)
	for {
		input, err := readInput(">")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		switch input {
		case "h":
			host(cli)
		case "l":
			list(cli)
		case "j":
			join(cli, user, *name)
		case "q":
			return
		case "?":
			printHelp()
		default:
			fmt.Println("Unknown input:", input)
			printHelp()
		}
	}
}

func host(cli *client.Client) {
	st, err := readInput("Session type [c or d]:")
	if err != nil {
		fmt.Println(err)
		return
	}
	pc, err := readInput("Player count [1-255]:")
	if err != nil {
		fmt.Println(err)
		return
	}

	var typ csr.SessionType
	switch st {
	case "c":
		typ = csr.COIN
	case "d":
		typ = csr.DICE
	default:
		fmt.Println("Invalid session type", st)
		fmt.Println("Enter c for Coin game")
		fmt.Println("or d for Dice game")
		return
	}

	count, err := strconv.ParseUint(pc, 10, 8)
	if err != nil || count == 0 {
		fmt.Println("Invalid player count", pc)
		fmt.Println("Valid values are between 1 and 255")
		return
	}

	sd, err := cli.Host(typ, uint8(count))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("Hosting session:", sd.Session)
	fmt.Println("Use j command to join this session")
}

func list(cli *client.Client) {
	sessions, err := cli.List()
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, sd := range sessions {
		fmt.Println("---")
		fmt.Printf("Session %d Type %s\n", sd.Session, sd.Type)
		fmt.Println("User count:", len(sd.Users))
		for _, u := range sd.Users {
			fmt.Printf("%s,", u)
		}
		if len(sd.Users) > 0 {
			fmt.Println()
		}
	}
}

func join(cli *client.Client, uid csr.UserID, name string) {
	si, err := readInput("Session ID:")
	if err != nil {
		fmt.Println(err)
		return
	}
	sid, err := strconv.ParseUint(si, 10, 64)
	if err != nil {
		fmt.Printf("Invalid session ID: %s, please enter a valid u64\n", si)
		return
	}

	// Join the session, then start listening to the server events
	if err := cli.Join(csr.SessionID(sid), uid, name); err != nil {
		fmt.Println(err)
		return
	}
	done, err := cli.Events(csr.SessionID(sid), uid, &Game{})
	if err != nil {
		fmt.Println(err)
		return
	}

	// Wait for the game to end
	if err := <-done; err != nil {
		log.Printf("Game exited with error %s", err)
	}
	fmt.Println("Game over")
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("h\thost a session")
	fmt.Println("l\tlist sessions")
	fmt.Println("j\tjoin a session")
	fmt.Println("q\tquit")
	fmt.Println("?\tprint this menu")
}
