// Wire format
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

// Package proto pins the wire format: newline-delimited JSON frames
// carrying the unary operations, the server event stream and the
// enumeration integers that clients on other stacks depend on.  The
// numeric tags in this file are compatibility-sensitive and must not
// be renumbered.
package proto

import (
	"bufio"
	"encoding/json"
	"fmt"
)

// Frame kinds.  1-9 are client requests, 10 and up are issued by the
// server.  Replies and faults reference the request they answer
// through Ref.
const (
	KindHostSession uint8 = 1
	KindListSessions uint8 = 2
	KindJoinSession uint8 = 3
	KindStartSession uint8 = 4
	KindServerEvents uint8 = 5
	KindRespond     uint8 = 6

	KindReply     uint8 = 10
	KindFault     uint8 = 11
	KindEvent     uint8 = 12
	KindStreamEnd uint8 = 13
)

// Session type integers on the wire.
const (
	TypeDice = 0
	TypeCoin = 1
)

// Coin face integers on the wire.
const (
	CoinHeads = 0
	CoinTails = 1
)

// Server request (prompt) variant tags.
const (
	TagUserJoined uint8 = 1
	TagPing       uint8 = 2
	TagRollDice   uint8 = 3
	TagFlipCoin   uint8 = 4
	TagWinner     uint8 = 5
	TagTryAgain   uint8 = 6
	TagError      uint8 = 7
)

// Client response variant tags.
const (
	TagPong        uint8 = 1
	TagDiceGuess   uint8 = 2
	TagCoinGuess   uint8 = 3
	TagAgain       uint8 = 4
	TagClientError uint8 = 5
)

// Frame is the unit of transmission: one JSON object per line over
// TCP, one per text message over a websocket.
type Frame struct {
	ID   uint64          `json:"id"`
	Ref  uint64          `json:"ref,omitempty"`
	Kind uint8           `json:"kind"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Unary payloads

type HostInfo struct {
	Type        int   `json:"type"`
	PlayerCount uint8 `json:"player_count"`
}

type SessionData struct {
	SessionID uint64   `json:"session_id"`
	Type      int      `json:"type"`
	Users     []string `json:"users"`
}

type Sessions struct {
	Data []SessionData `json:"data"`
}

type JoinInfo struct {
	SessionID uint64 `json:"session_id"`
	UserID    uint64 `json:"user_id"`
	UserName  string `json:"user_name"`
}

type StartInfo struct {
	SessionID uint64 `json:"session_id"`
}

type EventRegister struct {
	SessionID uint64 `json:"session_id"`
	UserID    uint64 `json:"user_id"`
}

type ClientEventResponse struct {
	Register EventRegister `json:"er"`
	Response Response      `json:"client_response"`
}

type Fault struct {
	Text string `json:"text"`
}

// Stream payloads

// Request is a server prompt on the event stream.  The body layout
// depends on the tag; a zero tag marks an empty envelope.
type Request struct {
	Tag  uint8           `json:"tag"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Response is a client answer to a prompt, routed back through the
// respond operation.
type Response struct {
	Tag  uint8           `json:"tag"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Variant bodies

type PingText struct {
	Text string `json:"text"`
}

type RollDice struct {
	Sides uint8 `json:"sides"`
	Count uint8 `json:"count"`
}

type FlipCoin struct {
	Count uint8 `json:"count"`
}

type WinnerInfo struct {
	UserID   uint64 `json:"user_id"`
	UserName string `json:"user_name"`
}

type ErrorText struct {
	Text string `json:"text"`
}

type PongText struct {
	Text string `json:"text"`
}

// Guesses are kept wider than byte so the encoder emits a JSON array
// rather than a base64 string.
type DiceGuess struct {
	Numbers []uint16 `json:"numbers"`
}

type CoinGuess struct {
	Coins []int `json:"coins"`
}

type Again struct {
	Value bool `json:"value"`
}

// NewFrame builds a frame with BODY marshalled in place.
func NewFrame(id, ref uint64, kind uint8, body interface{}) (*Frame, error) {
	f := &Frame{ID: id, Ref: ref, Kind: kind}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		f.Body = raw
	}
	return f, nil
}

// Encode serialises a frame, including the terminating newline.
func Encode(f *Frame) ([]byte, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

// Decode parses a single frame from one line.
func Decode(line []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(line, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	return &f, nil
}

// Read returns the next frame from R, blocking until a full line has
// arrived.
func Read(r *bufio.Reader) (*Frame, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return Decode(line)
}

// Parse unmarshals a frame or variant body into OUT, rejecting an
// absent body.
func Parse(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing body")
	}
	return json.Unmarshal(raw, out)
}
