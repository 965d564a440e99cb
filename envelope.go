// Prompt and response envelopes
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

// ServerRequest is a typed prompt the server pushes onto a user's
// event stream.  UserJoined, Winner and ErrorText are notifications;
// every other variant expects a ClientResponse of a specific type.
type ServerRequest interface {
	fmt.Stringer
	serverRequest()
}

type UserJoined struct {
	Session SessionID
	User    UserID
	Name    string
}

type Ping struct {
	Text string
}

type RollDice struct {
	Sides uint8
	Count uint8
}

type FlipCoin struct {
	Count uint8
}

type Winner struct {
	User UserID
	Name string
}

type TryAgain struct{}

type ErrorText struct {
	Text string
}

func (UserJoined) serverRequest() {}
func (Ping) serverRequest()       {}
func (RollDice) serverRequest()   {}
func (FlipCoin) serverRequest()   {}
func (Winner) serverRequest()     {}
func (TryAgain) serverRequest()   {}
func (ErrorText) serverRequest()  {}

func (u UserJoined) String() string {
	return fmt.Sprintf("UserJoined(%d, %d, %q)", u.Session, u.User, u.Name)
}
func (p Ping) String() string     { return fmt.Sprintf("Ping(%q)", p.Text) }
func (r RollDice) String() string { return fmt.Sprintf("RollDice(%d, %d)", r.Sides, r.Count) }
func (f FlipCoin) String() string { return fmt.Sprintf("FlipCoin(%d)", f.Count) }
func (w Winner) String() string   { return fmt.Sprintf("Winner(%d, %q)", w.User, w.Name) }
func (TryAgain) String() string   { return "TryAgain" }
func (e ErrorText) String() string {
	return fmt.Sprintf("Error(%q)", e.Text)
}

// ClientResponse is a typed answer a client sends back for a prompt.
type ClientResponse interface {
	fmt.Stringer
	clientResponse()
}

type Pong struct {
	Text string
}

type DiceGuess struct {
	Numbers []uint8
}

type CoinGuess struct {
	Coins []Coin
}

type Again struct {
	Value bool
}

func (Pong) clientResponse()         {}
func (DiceGuess) clientResponse()    {}
func (CoinGuess) clientResponse()    {}
func (Again) clientResponse()        {}
func (*ClientError) clientResponse() {}

func (p Pong) String() string      { return fmt.Sprintf("Pong(%q)", p.Text) }
func (d DiceGuess) String() string { return fmt.Sprintf("DiceGuess(%v)", d.Numbers) }
func (c CoinGuess) String() string { return fmt.Sprintf("CoinGuess(%v)", c.Coins) }
func (a Again) String() string     { return fmt.Sprintf("Again(%v)", a.Value) }
