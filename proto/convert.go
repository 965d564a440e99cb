// Wire and domain value conversions
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

package proto

import (
	"encoding/json"
	"fmt"

	csr "go-csr"
)

// Conversions are total where the wire value is structurally valid.
// Unknown enumeration integers and empty envelopes are rejected,
// never coerced.

func WireType(t csr.SessionType) int {
	switch t {
	case csr.DICE:
		return TypeDice
	case csr.COIN:
		return TypeCoin
	default:
		panic(fmt.Sprintf("Illegal session type: %d", uint8(t)))
	}
}

func ParseType(v int) (csr.SessionType, error) {
	switch v {
	case TypeDice:
		return csr.DICE, nil
	case TypeCoin:
		return csr.COIN, nil
	default:
		return 0, fmt.Errorf("%w: %d", csr.ErrInvalidSessionType, v)
	}
}

func WireCoin(c csr.Coin) int {
	switch c {
	case csr.HEADS:
		return CoinHeads
	case csr.TAILS:
		return CoinTails
	default:
		panic(fmt.Sprintf("Illegal coin value: %d", uint8(c)))
	}
}

func ParseCoin(v int) (csr.Coin, error) {
	switch v {
	case CoinHeads:
		return csr.HEADS, nil
	case CoinTails:
		return csr.TAILS, nil
	default:
		return 0, fmt.Errorf("%w: %d", csr.ErrInvalidCoinValue, v)
	}
}

func WireSession(d csr.SessionData) SessionData {
	users := d.Users
	if users == nil {
		users = []string{}
	}
	return SessionData{
		SessionID: uint64(d.Session),
		Type:      WireType(d.Type),
		Users:     users,
	}
}

func ParseSession(w SessionData) (csr.SessionData, error) {
	t, err := ParseType(w.Type)
	if err != nil {
		return csr.SessionData{}, err
	}
	return csr.SessionData{
		Session: csr.SessionID(w.SessionID),
		Type:    t,
		Users:   w.Users,
	}, nil
}

func variant(tag uint8, body interface{}) (uint8, json.RawMessage, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	return tag, raw, nil
}

// WireRequest converts a domain prompt into its stream envelope.
func WireRequest(r csr.ServerRequest) (*Request, error) {
	var (
		tag uint8
		raw json.RawMessage
		err error
	)
	switch v := r.(type) {
	case csr.UserJoined:
		tag, raw, err = variant(TagUserJoined, JoinInfo{
			SessionID: uint64(v.Session),
			UserID:    uint64(v.User),
			UserName:  v.Name,
		})
	case csr.Ping:
		tag, raw, err = variant(TagPing, PingText{Text: v.Text})
	case csr.RollDice:
		tag, raw, err = variant(TagRollDice, RollDice{Sides: v.Sides, Count: v.Count})
	case csr.FlipCoin:
		tag, raw, err = variant(TagFlipCoin, FlipCoin{Count: v.Count})
	case csr.Winner:
		tag, raw, err = variant(TagWinner, WinnerInfo{
			UserID:   uint64(v.User),
			UserName: v.Name,
		})
	case csr.TryAgain:
		tag, raw, err = variant(TagTryAgain, struct{}{})
	case csr.ErrorText:
		tag, raw, err = variant(TagError, ErrorText{Text: v.Text})
	default:
		return nil, fmt.Errorf("%w: %T", csr.ErrInvalidServerRequest, r)
	}
	if err != nil {
		return nil, err
	}
	return &Request{Tag: tag, Body: raw}, nil
}

// ParseRequest converts a stream envelope back into the domain
// prompt it carries.
func ParseRequest(w *Request) (csr.ServerRequest, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %v", csr.ErrInvalidServerRequest, err)
	}
	switch w.Tag {
	case TagUserJoined:
		var ji JoinInfo
		if err := Parse(w.Body, &ji); err != nil {
			return nil, invalid(err)
		}
		return csr.UserJoined{
			Session: csr.SessionID(ji.SessionID),
			User:    csr.UserID(ji.UserID),
			Name:    ji.UserName,
		}, nil
	case TagPing:
		var p PingText
		if err := Parse(w.Body, &p); err != nil {
			return nil, invalid(err)
		}
		return csr.Ping{Text: p.Text}, nil
	case TagRollDice:
		var r RollDice
		if err := Parse(w.Body, &r); err != nil {
			return nil, invalid(err)
		}
		return csr.RollDice{Sides: r.Sides, Count: r.Count}, nil
	case TagFlipCoin:
		var f FlipCoin
		if err := Parse(w.Body, &f); err != nil {
			return nil, invalid(err)
		}
		return csr.FlipCoin{Count: f.Count}, nil
	case TagWinner:
		var wi WinnerInfo
		if err := Parse(w.Body, &wi); err != nil {
			return nil, invalid(err)
		}
		return csr.Winner{
			User: csr.UserID(wi.UserID),
			Name: wi.UserName,
		}, nil
	case TagTryAgain:
		return csr.TryAgain{}, nil
	case TagError:
		var e ErrorText
		if err := Parse(w.Body, &e); err != nil {
			return nil, invalid(err)
		}
		return csr.ErrorText{Text: e.Text}, nil
	default:
		return nil, fmt.Errorf("%w: tag %d", csr.ErrInvalidServerRequest, w.Tag)
	}
}

// WireResponse converts a domain answer into its wire envelope.
func WireResponse(r csr.ClientResponse) (*Response, error) {
	var (
		tag uint8
		raw json.RawMessage
		err error
	)
	switch v := r.(type) {
	case csr.Pong:
		tag, raw, err = variant(TagPong, PongText{Text: v.Text})
	case csr.DiceGuess:
		nums := make([]uint16, len(v.Numbers))
		for i, n := range v.Numbers {
			nums[i] = uint16(n)
		}
		tag, raw, err = variant(TagDiceGuess, DiceGuess{Numbers: nums})
	case csr.CoinGuess:
		coins := make([]int, len(v.Coins))
		for i, c := range v.Coins {
			coins[i] = WireCoin(c)
		}
		tag, raw, err = variant(TagCoinGuess, CoinGuess{Coins: coins})
	case csr.Again:
		tag, raw, err = variant(TagAgain, Again{Value: v.Value})
	case *csr.ClientError:
		tag, raw, err = variant(TagClientError, ErrorText{Text: v.Text})
	default:
		return nil, fmt.Errorf("%w: %T", csr.ErrInvalidClientResponse, r)
	}
	if err != nil {
		return nil, err
	}
	return &Response{Tag: tag, Body: raw}, nil
}

// ParseResponse converts a wire envelope back into the domain answer
// it carries.
func ParseResponse(w *Response) (csr.ClientResponse, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %v", csr.ErrInvalidClientResponse, err)
	}
	switch w.Tag {
	case TagPong:
		var p PongText
		if err := Parse(w.Body, &p); err != nil {
			return nil, invalid(err)
		}
		return csr.Pong{Text: p.Text}, nil
	case TagDiceGuess:
		var d DiceGuess
		if err := Parse(w.Body, &d); err != nil {
			return nil, invalid(err)
		}
		nums := make([]uint8, len(d.Numbers))
		for i, n := range d.Numbers {
			if n > 255 {
				return nil, fmt.Errorf("%w: die value %d", csr.ErrInvalidClientResponse, n)
			}
			nums[i] = uint8(n)
		}
		return csr.DiceGuess{Numbers: nums}, nil
	case TagCoinGuess:
		var cg CoinGuess
		if err := Parse(w.Body, &cg); err != nil {
			return nil, invalid(err)
		}
		coins := make([]csr.Coin, len(cg.Coins))
		for i, v := range cg.Coins {
			c, err := ParseCoin(v)
			if err != nil {
				return nil, err
			}
			coins[i] = c
		}
		return csr.CoinGuess{Coins: coins}, nil
	case TagAgain:
		var a Again
		if err := Parse(w.Body, &a); err != nil {
			return nil, invalid(err)
		}
		return csr.Again{Value: a.Value}, nil
	case TagClientError:
		var e ErrorText
		if err := Parse(w.Body, &e); err != nil {
			return nil, invalid(err)
		}
		return &csr.ClientError{Text: e.Text}, nil
	default:
		return nil, fmt.Errorf("%w: tag %d", csr.ErrInvalidClientResponse, w.Tag)
	}
}
