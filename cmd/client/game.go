// Interactive game handler
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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	csr "go-csr"
)

// stdin is shared between the command loop and the game handler; the
// two never read concurrently because the command loop blocks on the
// done channel while a game is running.
var stdin = bufio.NewReader(os.Stdin)

func readInput(prompt string) (string, error) {
	fmt.Print(prompt, " ")
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Game answers the server's prompts with guesses read from stdin.
type Game struct{}

func (*Game) JoinInfo(sid csr.SessionID, uid csr.UserID, name string) error {
	fmt.Printf("User %s (%d) joined session %d\n", name, uid, sid)
	return nil
}

func (*Game) Ping(text string) (string, error) {
	fmt.Println("Server says:", text)
	return "pong", nil
}

func (*Game) RollDice(sides, count uint8) ([]uint8, error) {
	fmt.Printf("The server rolls %d dice with %d sides each\n", count, sides)
	guess := make([]uint8, 0, count)
	for i := uint8(0); i < count; i++ {
		for {
			in, err := readInput(fmt.Sprintf("Guess for die %d [1-%d]:", i+1, sides))
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseUint(in, 10, 8)
			if err != nil || n < 1 || uint8(n) > sides {
				fmt.Printf("Invalid guess %q, enter a number between 1 and %d\n", in, sides)
				continue
			}
			guess = append(guess, uint8(n))
			break
		}
	}
	return guess, nil
}

func (*Game) FlipCoin(count uint8) ([]csr.Coin, error) {
	fmt.Printf("The server flips %d coins\n", count)
	guess := make([]csr.Coin, 0, count)
	for i := uint8(0); i < count; i++ {
		for {
			in, err := readInput(fmt.Sprintf("Guess for coin %d [h or t]:", i+1))
			if err != nil {
				return nil, err
			}
			switch in {
			case "h":
				guess = append(guess, csr.HEADS)
			case "t":
				guess = append(guess, csr.TAILS)
			default:
				fmt.Printf("Invalid guess %q, enter h for heads or t for tails\n", in)
				continue
			}
			break
		}
	}
	return guess, nil
}

func (*Game) Winner(uid csr.UserID, name string) error {
	fmt.Printf("The winner is %s (%d)\n", name, uid)
	return nil
}

func (*Game) TryAgain() (bool, error) {
	for {
		in, err := readInput("Play another round? [y or n]:")
		if err != nil {
			return false, err
		}
		switch in {
		case "y":
			return true, nil
		case "n":
			return false, nil
		}
		fmt.Printf("Invalid answer %q, enter y or n\n", in)
	}
}

func (*Game) Error(text string) error {
	fmt.Println("Server reported an error:", text)
	return nil
}
