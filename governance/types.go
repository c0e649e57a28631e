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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxBIPS is the denominator of all threshold and majority conditions.
const MaxBIPS = 10000

// Support is the direction of a vote.
type Support uint8

const (
	SupportAgainst Support = 0
	SupportFor     Support = 1
)

func (s Support) String() string {
	switch s {
	case SupportAgainst:
		return "against"
	case SupportFor:
		return "for"
	default:
		return "invalid"
	}
}

// ProposalState is derived from a proposal's stored fields and the current time.
// It is never persisted.
type ProposalState uint8

const (
	StatePending   ProposalState = 0x00
	StateActive    ProposalState = 0x01
	StateDefeated  ProposalState = 0x02
	StateSucceeded ProposalState = 0x03
	StateQueued    ProposalState = 0x04
	StateExpired   ProposalState = 0x05
	StateExecuted  ProposalState = 0x06
	StateCanceled  ProposalState = 0x07
)

var stateNames = map[ProposalState]string{
	StatePending:   "Pending",
	StateActive:    "Active",
	StateDefeated:  "Defeated",
	StateSucceeded: "Succeeded",
	StateQueued:    "Queued",
	StateExpired:   "Expired",
	StateExecuted:  "Executed",
	StateCanceled:  "Canceled",
}

func (s ProposalState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no further transition can leave the state.
func (s ProposalState) Terminal() bool {
	switch s {
	case StateDefeated, StateExpired, StateExecuted, StateCanceled:
		return true
	}
	return false
}

// Rounding selects how the quorum is derived from the threshold condition.
type Rounding uint8

const (
	RoundDown Rounding = iota
	RoundUp
)

// Content is the part of a proposal that determines its identifier.
type Content struct {
	Targets     []common.Address
	Values      []*uint256.Int
	Calldatas   [][]byte
	Description string
}

// Executable reports whether the content carries on-chain calls.
func (c *Content) Executable() bool {
	return len(c.Targets) > 0
}

// TotalValue sums the values of all calls.
func (c *Content) TotalValue() (*uint256.Int, bool) {
	total := new(uint256.Int)
	for _, v := range c.Values {
		if v == nil {
			continue
		}
		if _, overflow := total.AddOverflow(total, v); overflow {
			return nil, false
		}
	}
	return total, true
}

// Settings are the per-proposal voting and execution parameters chosen by
// the proposer.
type Settings struct {
	Accept                 bool   // polarity: acceptance or rejection based proposal
	VotingStartTs          uint64 // earliest voting start, clamped to the creation time
	VotingPeriodSeconds    uint64
	VpBlockPeriodSeconds   uint64 // lookback window for the vote power snapshot
	ThresholdConditionBIPS uint64 // required turnout relative to the total weight
	MajorityConditionBIPS  uint64 // required share of the winning side
	ExecutionDelaySeconds  uint64
	ExecutionPeriodSeconds uint64
}

// Snapshot is the historical point at which vote power is evaluated.
type Snapshot struct {
	Ref       uint64 // block number or reward epoch, depending on the variant
	Timestamp uint64
}

// Proposal is a stored governance proposal.
type Proposal struct {
	ID                     common.Hash
	Proposer               common.Address
	Accept                 bool
	SnapshotRef            uint64
	SnapshotTimestamp      uint64
	CreatedAt              uint64
	VoteStart              uint64
	VoteEnd                uint64
	ExecStart              uint64
	ExecEnd                uint64
	ThresholdConditionBIPS uint64
	MajorityConditionBIPS  uint64
	TotalWeight            *uint256.Int
	Description            string
	Canceled               bool
	Executed               bool
	ExecutableOnChain      bool
}

// Copy returns a deep copy of the proposal.
func (p *Proposal) Copy() *Proposal {
	cpy := *p
	if p.TotalWeight != nil {
		cpy.TotalWeight = new(uint256.Int).Set(p.TotalWeight)
	}
	return &cpy
}

// ProposalVotes holds the accumulated weights of a proposal.
type ProposalVotes struct {
	For     *uint256.Int
	Against *uint256.Int
}

// Cast returns the combined participating weight.
func (v *ProposalVotes) Cast() *uint256.Int {
	return new(uint256.Int).Add(v.For, v.Against)
}

// Receipt records a single voter's ballot.
type Receipt struct {
	Support Support
	Weight  *uint256.Int
}

// ProposalInfo is a combined read of a proposal, its votes and its state.
type ProposalInfo struct {
	Proposal *Proposal
	Votes    *ProposalVotes
	State    ProposalState
}
