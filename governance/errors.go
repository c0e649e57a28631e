// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package governance

import (
	"errors"
	"fmt"
)

// Proposal errors
var (
	ErrAlreadyExists        = errors.New("proposal already exists")
	ErrInvalidSettings      = errors.New("invalid proposal settings")
	ErrUnknownProposal      = errors.New("unknown proposal")
	ErrDurationTooLong      = errors.New("proposal duration too long for vote power snapshot")
	ErrContentMismatch      = errors.New("proposal content does not match id")
	ErrNotEligible          = errors.New("address is not eligible")
	ErrNotProposer          = errors.New("caller is not the proposer")
	ErrAlreadyCanceled      = errors.New("proposal already canceled")
	ErrAlreadyExecuted      = errors.New("proposal already executed")
	ErrNotQueued            = errors.New("proposal is not queued")
	ErrValueMismatch        = errors.New("payment does not match the sum of call values")
	ErrSubcallFailed        = errors.New("call reverted without message")
	ErrVotingAlreadyStarted = errors.New("voting already started")
)

// Voting errors
var (
	ErrNotActive        = errors.New("proposal is not active")
	ErrAlreadyVoted     = errors.New("voter has already voted on this proposal")
	ErrInvalidSupport   = errors.New("invalid vote support")
	ErrInvalidSignature = errors.New("invalid vote signature")
	ErrWeightOverflow   = errors.New("vote weight overflow")
)

// Membership errors
var (
	ErrProxyConflict       = errors.New("proxy already serves another voter")
	ErrCooldownActive      = errors.New("cooldown period still active")
	ErrInsufficientHistory = errors.New("not enough finalized reward epochs")
	ErrAlreadyMember       = errors.New("address is already a member")
	ErrNotMember           = errors.New("address is not a member")
	ErrCannotRemove        = errors.New("cannot remove member")
	ErrNotMaintainer       = errors.New("caller is not the maintainer")
)

// SubcallError reports a failed call during proposal execution.
type SubcallError struct {
	Index  int
	Reason string // decoded revert reason, empty when none was returned
	Data   []byte // raw return data of the failed call
}

func (e *SubcallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("call %d reverted: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("call %d: %v", e.Index, ErrSubcallFailed)
}

func (e *SubcallError) Unwrap() error { return ErrSubcallFailed }
