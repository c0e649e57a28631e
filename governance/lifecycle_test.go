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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lifecycleProposal(threshold, majority, total uint64, accept bool) *Proposal {
	return &Proposal{
		Accept:                 accept,
		VoteStart:              100,
		VoteEnd:                200,
		ThresholdConditionBIPS: threshold,
		MajorityConditionBIPS:  majority,
		TotalWeight:            uint256.NewInt(total),
	}
}

func votesOf(forWeight, against uint64) *ProposalVotes {
	return &ProposalVotes{For: uint256.NewInt(forWeight), Against: uint256.NewInt(against)}
}

func TestQuorumBoundary(t *testing.T) {
	p := lifecycleProposal(5000, 5000, 1000, true)

	assert.True(t, QuorumReached(p, votesOf(500, 0), RoundDown))
	assert.True(t, Succeeded(p, votesOf(500, 0), RoundDown))

	assert.False(t, QuorumReached(p, votesOf(499, 0), RoundDown))
	assert.False(t, Succeeded(p, votesOf(499, 0), RoundDown))
}

func TestMajorityBoundary(t *testing.T) {
	p := lifecycleProposal(0, 5000, 1000, true)

	// Exactly half is not a majority.
	assert.False(t, Succeeded(p, votesOf(300, 300), RoundDown))
	assert.True(t, Succeeded(p, votesOf(301, 300), RoundDown))
}

func TestPolarityFlip(t *testing.T) {
	accept := lifecycleProposal(5000, 5000, 1000, true)
	reject := lifecycleProposal(5000, 5000, 1000, false)

	// Low turnout defaults to the opposite of the polarity.
	low := votesOf(10, 0)
	assert.False(t, Succeeded(accept, low, RoundDown))
	assert.True(t, Succeeded(reject, low, RoundDown))

	// A rejection based proposal fails only when enough voters reject it.
	rejected := votesOf(100, 500)
	assert.False(t, Succeeded(reject, rejected, RoundDown))
	assert.True(t, Succeeded(reject, votesOf(500, 100), RoundDown))
}

// The management group rounds the quorum up while the other variants round
// down. The difference is intended and decides boundary cases in small groups.
func TestQuorumRoundingDivergesForManagementGroup(t *testing.T) {
	p := lifecycleProposal(5000, 5000, 3, true)

	assert.Equal(t, uint64(1), Quorum(p, RoundDown).Uint64())
	assert.Equal(t, uint64(2), Quorum(p, RoundUp).Uint64())

	one := votesOf(1, 0)
	assert.True(t, Succeeded(p, one, RoundDown))
	assert.False(t, Succeeded(p, one, RoundUp))
}

func TestQuorumLargeTotalWeight(t *testing.T) {
	maxWeight := new(uint256.Int).SetAllOne()
	p := lifecycleProposal(7500, 5000, 0, true)
	p.TotalWeight = maxWeight

	// 3/4 of 2^256-1, computed without wrapping.
	want := new(uint256.Int).Div(maxWeight, uint256.NewInt(4))
	want.Mul(want, uint256.NewInt(3))
	want.AddUint64(want, 2)
	assert.Equal(t, want, Quorum(p, RoundDown))
	assert.Equal(t, new(uint256.Int).AddUint64(want, 1), Quorum(p, RoundUp))

	half := new(uint256.Int).Rsh(maxWeight, 1)
	assert.False(t, QuorumReached(p, &ProposalVotes{For: half, Against: new(uint256.Int)}, RoundDown))

	votes := &ProposalVotes{For: new(uint256.Int).Sub(maxWeight, half), Against: new(uint256.Int).Sub(half, uint256.NewInt(1<<20))}
	assert.True(t, QuorumReached(p, votes, RoundDown))
	assert.True(t, Succeeded(p, votes, RoundDown))
}

func TestDeriveStateVotingInterval(t *testing.T) {
	p := lifecycleProposal(0, 5000, 1000, true)
	votes := votesOf(0, 0)

	tests := []struct {
		now  uint64
		want ProposalState
	}{
		{99, StatePending},
		{100, StateActive},
		{199, StateActive},
		{200, StateDefeated},
	}
	for _, tt := range tests {
		state, err := DeriveState(p, votes, tt.now, RoundDown, false)
		require.NoError(t, err)
		assert.Equal(t, tt.want, state, "now=%d", tt.now)
	}
}

func TestDeriveStateExecutionWindow(t *testing.T) {
	p := lifecycleProposal(3000, 6000, 1000, true)
	p.ExecutableOnChain = true
	p.ExecStart = 250
	p.ExecEnd = 300
	votes := votesOf(400, 100)

	tests := []struct {
		now  uint64
		want ProposalState
	}{
		{200, StateSucceeded},
		{249, StateSucceeded},
		{250, StateQueued},
		{299, StateQueued},
		{300, StateExpired},
	}
	for _, tt := range tests {
		state, err := DeriveState(p, votes, tt.now, RoundDown, true)
		require.NoError(t, err)
		assert.Equal(t, tt.want, state, "now=%d", tt.now)
	}

	state, err := DeriveState(p, votesOf(100, 400), 260, RoundDown, true)
	require.NoError(t, err)
	assert.Equal(t, StateDefeated, state)
}

func TestDeriveStateFlags(t *testing.T) {
	p := lifecycleProposal(3000, 6000, 1000, true)
	votes := votesOf(400, 100)

	// Text proposals of execution capable governors queue right after voting.
	state, err := DeriveState(p, votes, 200, RoundDown, true)
	require.NoError(t, err)
	assert.Equal(t, StateQueued, state)

	// Polling governors end in succeeded.
	state, err = DeriveState(p, votes, 200, RoundDown, false)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, state)

	p.Executed = true
	state, err = DeriveState(p, votes, 200, RoundDown, true)
	require.NoError(t, err)
	assert.Equal(t, StateExecuted, state)

	p.Canceled = true
	state, err = DeriveState(p, votes, 150, RoundDown, true)
	require.NoError(t, err)
	assert.Equal(t, StateCanceled, state)

	_, err = DeriveState(&Proposal{TotalWeight: new(uint256.Int)}, votes, 150, RoundDown, true)
	assert.ErrorIs(t, err, ErrUnknownProposal)
}

func TestDeriveStateIdempotent(t *testing.T) {
	p := lifecycleProposal(3000, 6000, 1000, true)
	votes := votesOf(400, 100)

	for _, now := range []uint64{50, 100, 200} {
		first, err := DeriveState(p, votes, now, RoundDown, true)
		require.NoError(t, err)
		second, err := DeriveState(p, votes, now, RoundDown, true)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
