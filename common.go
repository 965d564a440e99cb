// Common types and constants
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

package csr

import "fmt"

type (
	// SessionID names a hosted session.  The server allocates these
	// from a strictly increasing counter, starting at 1.
	SessionID uint64

	// UserID identifies a user.  The value is chosen by the client
	// and taken as given.
	UserID uint64
)

// SessionType selects the game a session plays.
type SessionType uint8

const (
	DICE SessionType = iota
	COIN
)

func (t SessionType) String() string {
	switch t {
	case DICE:
		return "Dice"
	case COIN:
		return "Coin"
	default:
		panic(fmt.Sprintf("Illegal session type: %d", uint8(t)))
	}
}

// Coin is one face of a flipped coin.
type Coin uint8

const (
	HEADS Coin = iota
	TAILS
)

func (c Coin) String() string {
	switch c {
	case HEADS:
		return "Heads"
	case TAILS:
		return "Tails"
	default:
		panic(fmt.Sprintf("Illegal coin value: %d", uint8(c)))
	}
}

// UserData holds what the server knows about a joined user.
type UserData struct {
	Name string
}

// SessionData describes a session to clients: its identifier, the
// game being played and the names of everyone who has joined.
type SessionData struct {
	Session SessionID
	Type    SessionType
	Users   []string
}

// EventRegister identifies one user's event stream within one
// session.  It doubles as the routing key for inbound responses.
type EventRegister struct {
	Session SessionID
	User    UserID
}

func (er EventRegister) String() string {
	return fmt.Sprintf("%d/%d", er.Session, er.User)
}
