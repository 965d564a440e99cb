// Error taxonomy
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

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSessionType    = errors.New("invalid session type")
	ErrInvalidCoinValue      = errors.New("invalid coin value")
	ErrInvalidServerRequest  = errors.New("invalid server request")
	ErrInvalidClientResponse = errors.New("invalid client response")
	ErrClientDisconnected    = errors.New("client disconnected")
	ErrUnknownWinner         = errors.New("winner is unknown")
	ErrSessionNotFound       = errors.New("session not found")
	ErrUserAlreadyInSession  = errors.New("user already in session")
	ErrUserNotInSession      = errors.New("user not in session")
	ErrClientUnreachable     = errors.New("client unreachable")
)

func SessionNotFound(sid SessionID) error {
	return fmt.Errorf("%w: %d", ErrSessionNotFound, sid)
}

func UserAlreadyInSession(uid UserID, sid SessionID) error {
	return fmt.Errorf("%w: user %d, session %d", ErrUserAlreadyInSession, uid, sid)
}

func UserNotInSession(uid UserID, sid SessionID) error {
	return fmt.Errorf("%w: user %d, session %d", ErrUserNotInSession, uid, sid)
}

func ClientUnreachable(uid UserID) error {
	return fmt.Errorf("%w: user %d", ErrClientUnreachable, uid)
}

// ClientError reports a failure inside the client's own handler.  It
// travels over the wire as a response variant and surfaces on the
// server side as the error of the prompt that triggered it.
type ClientError struct {
	Text string
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error: %s", e.Text)
}

func (e *ClientError) String() string {
	return fmt.Sprintf("ClientError(%q)", e.Text)
}
