// Event conduit tests
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

package event

import (
	"testing"

	csr "go-csr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answer runs a minimal client: for every prompt coming out of the
// conduit it delivers the response picked by PICK, until the conduit
// is torn down.
func answer(t *testing.T, cd *Conduit, pick func(csr.ServerRequest) csr.ClientResponse) {
	t.Helper()
	go func() {
		for {
			select {
			case req := <-cd.Prompts():
				if resp := pick(req); resp != nil {
					if err := cd.Deliver(resp); err != nil {
						return
					}
				}
			case <-cd.Done():
				return
			}
		}
	}()
}

func TestPromptResponseCorrelation(t *testing.T) {
	cd := MakeConduit()
	defer cd.Close()
	answer(t, cd, func(req csr.ServerRequest) csr.ClientResponse {
		switch v := req.(type) {
		case csr.Ping:
			return csr.Pong{Text: v.Text}
		case csr.RollDice:
			guess := make([]uint8, v.Count)
			for i := range guess {
				guess[i] = 1
			}
			return csr.DiceGuess{Numbers: guess}
		case csr.FlipCoin:
			guess := make([]csr.Coin, v.Count)
			return csr.CoinGuess{Coins: guess}
		case csr.TryAgain:
			return csr.Again{Value: false}
		default:
			return nil
		}
	})

	text, err := cd.Ping("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	dice, err := cd.RollDice(6, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 1, 1}, dice)

	coins, err := cd.FlipCoin(2)
	require.NoError(t, err)
	assert.Equal(t, []csr.Coin{csr.HEADS, csr.HEADS}, coins)

	again, err := cd.TryAgain()
	require.NoError(t, err)
	assert.False(t, again)
}

func TestNotificationsDoNotAwaitResponse(t *testing.T) {
	cd := MakeConduit()
	defer cd.Close()

	require.NoError(t, cd.UserJoined(1, 2, "ada"))
	require.NoError(t, cd.Winner(2, "ada"))
	require.NoError(t, cd.Error("boom"))

	assert.Equal(t, csr.UserJoined{Session: 1, User: 2, Name: "ada"}, <-cd.Prompts())
	assert.Equal(t, csr.Winner{User: 2, Name: "ada"}, <-cd.Prompts())
	assert.Equal(t, csr.ErrorText{Text: "boom"}, <-cd.Prompts())
}

func TestVariantMismatch(t *testing.T) {
	cd := MakeConduit()
	defer cd.Close()
	answer(t, cd, func(csr.ServerRequest) csr.ClientResponse {
		return csr.Pong{Text: "pong"}
	})

	_, err := cd.RollDice(6, 1)
	assert.ErrorIs(t, err, csr.ErrInvalidClientResponse)
}

func TestClientErrorPassthrough(t *testing.T) {
	cd := MakeConduit()
	defer cd.Close()
	answer(t, cd, func(csr.ServerRequest) csr.ClientResponse {
		return &csr.ClientError{Text: "cannot comply"}
	})

	_, err := cd.Ping("hello")
	require.Error(t, err)
	var ce *csr.ClientError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cannot comply", ce.Text)
}

func TestCloseUnblocksPoll(t *testing.T) {
	cd := MakeConduit()
	done := make(chan error, 1)
	go func() {
		_, err := cd.Ping("hello")
		done <- err
	}()
	<-cd.Prompts()
	cd.Close()
	assert.ErrorIs(t, <-done, csr.ErrClientDisconnected)
}

func TestDeliverAfterClose(t *testing.T) {
	cd := MakeConduit()
	cd.Close()
	cd.Close() // idempotent
	assert.ErrorIs(t, cd.Deliver(csr.Pong{}), csr.ErrClientDisconnected)
}

func TestSendAfterClose(t *testing.T) {
	cd := MakeConduit()
	cd.Close()
	_, err := cd.Ping("hello")
	assert.ErrorIs(t, err, csr.ErrClientDisconnected)
}

func TestDeliverBacklogBound(t *testing.T) {
	cd := MakeConduit()
	defer cd.Close()
	for i := 0; i < backlog; i++ {
		require.NoError(t, cd.Deliver(csr.Pong{}))
	}
	assert.Error(t, cd.Deliver(csr.Pong{}))
}
