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
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// VotePowerOracle returns historical voting weights.
type VotePowerOracle interface {
	// WeightOf returns the vote power of addr at the given snapshot.
	WeightOf(addr common.Address, snapshotRef uint64) (*uint256.Int, error)
}

// SupplySource returns the circulating supply used as the foundation quorum basis.
type SupplySource interface {
	CirculatingSupplyAt(snapshotRef uint64) (*uint256.Int, error)
}

// EpochClock maps timestamps to reward epochs.
type EpochClock interface {
	// CurrentEpoch returns the reward epoch active at the given timestamp
	// together with the epoch start timestamp.
	CurrentEpoch(now uint64) (epoch uint64, startTs uint64)
}

// VoterRegistry is the registry of FTSO data providers per reward epoch.
type VoterRegistry interface {
	EpochClock

	// IsRegistered checks whether voter is registered for the reward epoch.
	IsRegistered(voter common.Address, epoch uint64) bool

	// WeightOf returns the registration weight of voter for the reward epoch.
	WeightOf(voter common.Address, epoch uint64) (*uint256.Int, error)

	// TotalWeight returns the sum of weights of all voters registered for
	// the reward epoch together with their count.
	TotalWeight(epoch uint64) (*uint256.Int, int, error)
}

// RewardSignal exposes reward accounting and chill status to the
// management group.
type RewardSignal interface {
	EpochClock

	// IsInitialized reports whether reward data of the epoch is finalized
	// for the beneficiary.
	IsInitialized(beneficiary common.Address, epoch uint64) bool

	// RewardIsZero reports whether the beneficiary earned nothing in the epoch.
	RewardIsZero(beneficiary common.Address, epoch uint64) bool

	// ChilledUntil returns the first reward epoch in which addr is no
	// longer chilled. Zero means never chilled.
	ChilledUntil(addr common.Address) uint64
}

// CallDispatcher performs the on-chain calls of an executed proposal.
type CallDispatcher interface {
	// Dispatch executes a single call and returns its return data. A
	// reverted call returns its revert data together with a non-nil error.
	Dispatch(ctx context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error)
}

// CallSimulator is implemented by dispatchers that can dry-run a call
// without changing state. Execution simulates every pending call of a
// proposal before dispatching the first one.
type CallSimulator interface {
	Simulate(ctx context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error)
}

// SnapshotProvider fixes the vote power snapshot of a new proposal.
type SnapshotProvider interface {
	// Snapshot selects a snapshot no older than lookback seconds before now.
	// The seed makes the choice deterministic per proposal.
	Snapshot(ctx context.Context, seed common.Hash, now, lookback uint64) (Snapshot, error)
}

// EligibilityPolicy captures the per-variant rules of a governor.
type EligibilityPolicy interface {
	// Principal resolves the address on whose behalf caller acts.
	Principal(caller common.Address) common.Address

	// CanPropose reports whether caller may create a proposal at time now.
	CanPropose(caller common.Address, now uint64) bool

	// CanVote reports whether principal may vote on the proposal.
	CanVote(principal common.Address, p *Proposal) bool

	// CanCancel reports whether caller may cancel on behalf of proposer.
	CanCancel(caller, proposer common.Address) bool

	// QuorumBasis returns the total eligible weight frozen into a new
	// proposal created with the given snapshot.
	QuorumBasis(snapshot Snapshot) (*uint256.Int, error)

	// Rounding returns how the quorum is rounded for this variant.
	Rounding() Rounding

	// ExecutionCapable reports whether proposals may carry on-chain calls.
	ExecutionCapable() bool
}
