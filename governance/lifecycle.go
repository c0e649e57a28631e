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
	"fmt"

	"github.com/holiman/uint256"
)

var maxBIPS = uint256.NewInt(MaxBIPS)

// Quorum returns the minimal participating weight of a proposal. The
// product is taken in 512 bits, so any total weight is accepted.
func Quorum(p *Proposal, rounding Rounding) *uint256.Int {
	return bipsOf(p.ThresholdConditionBIPS, p.TotalWeight, rounding)
}

// bipsOf returns bips/10000 of x. The result never exceeds x for bips up to
// MaxBIPS.
func bipsOf(bips uint64, x *uint256.Int, rounding Rounding) *uint256.Int {
	b := uint256.NewInt(bips)
	q, _ := new(uint256.Int).MulDivOverflow(b, x, maxBIPS)
	if rounding == RoundUp && !new(uint256.Int).MulMod(b, x, maxBIPS).IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// QuorumReached reports whether turnout meets the proposal's threshold condition.
func QuorumReached(p *Proposal, votes *ProposalVotes, rounding Rounding) bool {
	return !votes.Cast().Lt(Quorum(p, rounding))
}

// Succeeded applies the pass/fail rule of a proposal. Failing either the
// quorum or the majority condition yields the opposite of the proposal's
// polarity, so a rejection based proposal passes on low turnout.
func Succeeded(p *Proposal, votes *ProposalVotes, rounding Rounding) bool {
	if !QuorumReached(p, votes, rounding) {
		return !p.Accept
	}
	winning := votes.Against
	if p.Accept {
		winning = votes.For
	}
	required := bipsOf(p.MajorityConditionBIPS, votes.Cast(), RoundDown)
	if !winning.Gt(required) {
		return !p.Accept
	}
	return p.Accept
}

// DeriveState computes the lifecycle state of a proposal at time now. It is a
// pure function of the stored fields, the votes and now.
func DeriveState(p *Proposal, votes *ProposalVotes, now uint64, rounding Rounding, executionCapable bool) (ProposalState, error) {
	if p.Canceled {
		return StateCanceled, nil
	}
	if executionCapable && p.Executed {
		return StateExecuted, nil
	}
	if p.VoteStart == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProposal, p.ID.Hex())
	}
	if now < p.VoteStart {
		return StatePending, nil
	}
	if now < p.VoteEnd {
		return StateActive, nil
	}
	succeeded := Succeeded(p, votes, rounding)
	if !executionCapable {
		if succeeded {
			return StateSucceeded, nil
		}
		return StateDefeated, nil
	}
	switch {
	case !succeeded:
		return StateDefeated, nil
	case !p.ExecutableOnChain:
		return StateQueued, nil
	case now < p.ExecStart:
		return StateSucceeded, nil
	case now < p.ExecEnd:
		return StateQueued, nil
	default:
		return StateExpired, nil
	}
}
