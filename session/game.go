// Game loop
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

package session

import (
	"log"
	"math/rand"

	csr "go-csr"
	"go-csr/event"
)

var diceSides = []uint8{4, 6, 8, 12, 20}

// Source provides the random choices of a round.  The default draws
// from math/rand; tests substitute a scripted source.
type Source interface {
	Sides() uint8       // die size, one of 4, 6, 8, 12, 20
	Count() uint8       // dice to roll or coins to flip, 1 to 6
	Roll(sides uint8) uint8
	Flip() csr.Coin
}

type mathSource struct{}

func (mathSource) Sides() uint8 {
	return diceSides[rand.Intn(len(diceSides))]
}

func (mathSource) Count() uint8 {
	return uint8(1 + rand.Intn(6))
}

func (mathSource) Roll(sides uint8) uint8 {
	return uint8(1 + rand.Intn(int(sides)))
}

func (mathSource) Flip() csr.Coin {
	if rand.Intn(2) == 0 {
		return csr.HEADS
	}
	return csr.TAILS
}

// callbacks is the conduit table the game loop owns once the session
// has started.
type callbacks map[csr.UserID]*event.Conduit

func (cb callbacks) route(uid csr.UserID) (*event.Conduit, error) {
	cd, ok := cb[uid]
	if !ok {
		return nil, csr.ClientUnreachable(uid)
	}
	return cd, nil
}

// run drives one session from quorum to teardown.  It waits until
// every joined user has opened their event stream, moves the conduit
// table out of the session state and plays rounds until the group
// votes to stop or something fails.  Either way the session is
// removed from the registry at the end.
func (r *Registry) run(s *Session) {
	s.mu.Lock()
	for len(s.conduits) < len(s.users) {
		s.cond.Wait()
	}
	users := make(map[csr.UserID]csr.UserData, len(s.users))
	for uid, ud := range s.users {
		users[uid] = ud
	}
	order := append([]csr.UserID(nil), s.order...)
	typ := s.typ
	cb := callbacks(s.conduits)
	s.conduits = make(map[csr.UserID]*event.Conduit)
	s.mu.Unlock()

	err := play(order, users, typ, cb, r.src)
	if err != nil {
		log.Printf("Session %d failed: %s", s.id, err)
		broadcast(cb, err)
	} else {
		log.Printf("Game complete for session %d", s.id)
	}

	r.remove(s.id)
	for _, cd := range cb {
		cd.Close()
	}
}

// play loops rounds until a try-again poll comes back negative.
func play(order []csr.UserID, users map[csr.UserID]csr.UserData,
	typ csr.SessionType, cb callbacks, src Source) error {
	for {
		for _, uid := range order {
			cd, err := cb.route(uid)
			if err != nil {
				return err
			}
			msg, err := cd.Ping("Game start")
			if err != nil {
				return err
			}
			log.Printf("Received ping response: %s from %d", msg, uid)
		}

		var (
			winner csr.UserID
			err    error
		)
		switch typ {
		case csr.DICE:
			winner, err = diceRound(order, cb, src)
		case csr.COIN:
			winner, err = coinRound(order, cb, src)
		}
		if err != nil {
			return err
		}

		ud, ok := users[winner]
		if !ok {
			return csr.ErrUnknownWinner
		}

		for _, uid := range order {
			cd, err := cb.route(uid)
			if err != nil {
				return err
			}
			if err := cd.Winner(winner, ud.Name); err != nil {
				return err
			}
		}

		again := true
		for _, uid := range order {
			cd, err := cb.route(uid)
			if err != nil {
				return err
			}
			a, err := cd.TryAgain()
			if err != nil {
				return err
			}
			again = again && a
		}
		if !again {
			return nil
		}
	}
}

// diceRound rolls the truth vector, then polls each user for a guess.
// A guess entry scores if the rolled multiset contains that value;
// repeated guesses do not multiply.  The last user polled with a
// score at least as high as the best so far wins.
func diceRound(order []csr.UserID, cb callbacks, src Source) (csr.UserID, error) {
	sides := src.Sides()
	count := src.Count()
	truth := make([]uint8, count)
	for i := range truth {
		truth[i] = src.Roll(sides)
	}
	csr.Debug.Printf("Rolled %v with %d-sided dice", truth, sides)

	var (
		winner csr.UserID
		best   int
	)
	for _, uid := range order {
		cd, err := cb.route(uid)
		if err != nil {
			return 0, err
		}
		guess, err := cd.RollDice(sides, count)
		if err != nil {
			return 0, err
		}
		score := 0
		for _, g := range guess {
			if contains(truth, g) {
				score++
			}
		}
		// Deliberately >=, not >: the last tied user wins, and a
		// zero score beats the zero starting point.
		if score >= best {
			best = score
			winner = uid
		}
	}
	return winner, nil
}

// coinRound flips the truth vector, then polls each user for a guess.
// Positions are compared up to the shorter of guess and truth.  Same
// tie-break as the dice round.
func coinRound(order []csr.UserID, cb callbacks, src Source) (csr.UserID, error) {
	count := src.Count()
	truth := make([]csr.Coin, count)
	for i := range truth {
		truth[i] = src.Flip()
	}
	csr.Debug.Printf("Flipped %v", truth)

	var (
		winner csr.UserID
		best   int
	)
	for _, uid := range order {
		cd, err := cb.route(uid)
		if err != nil {
			return 0, err
		}
		guess, err := cd.FlipCoin(count)
		if err != nil {
			return 0, err
		}
		score := 0
		for j := 0; j < len(guess) && j < len(truth); j++ {
			if guess[j] == truth[j] {
				score++
			}
		}
		if score >= best {
			best = score
			winner = uid
		}
	}
	return winner, nil
}

func contains(vs []uint8, v uint8) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// broadcast delivers a terminal error to every user.  Failures here
// are only logged.
func broadcast(cb callbacks, err error) {
	for uid, cd := range cb {
		if e := cd.Error(err.Error()); e != nil {
			log.Printf("Failed to send error to user %d: [%s], due to %s",
				uid, err, e)
		}
	}
}
