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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const providerEpoch = 1000

// newProviderGovernor registers voterA (600) and voterB (400) for epoch 1.
func newProviderGovernor(t *testing.T) (*Governor, *ProviderPolicy) {
	t.Helper()

	registry := NewInMemoryVoterRegistry(mockEpochClock{length: providerEpoch})
	require.NoError(t, registry.Register(voterA, 1, uint256.NewInt(600)))
	require.NoError(t, registry.Register(voterB, 1, uint256.NewInt(400)))

	policy := NewProviderPolicy(registry, maintainer)
	g, err := NewGovernor(testConfig(), memorydb.New(), Backends{
		Policy:    policy,
		VotePower: RegistryVotePower{Registry: registry},
		Snapshots: NewEpochSnapshots(registry),
	})
	require.NoError(t, err)
	return g, policy
}

func TestProviderProxyBijection(t *testing.T) {
	registry := NewInMemoryVoterRegistry(mockEpochClock{length: providerEpoch})
	policy := NewProviderPolicy(registry, maintainer)

	require.NoError(t, policy.SetProxyVoter(voterA, proxyAddr))
	assert.Equal(t, voterA, policy.Principal(proxyAddr))
	assert.Equal(t, voterB, policy.Principal(voterB))

	err := policy.SetProxyVoter(voterB, proxyAddr)
	assert.ErrorIs(t, err, ErrProxyConflict)
	assert.Equal(t, voterA, policy.Principal(proxyAddr))

	// Reassigning the same pair is a no-op.
	require.NoError(t, policy.SetProxyVoter(voterA, proxyAddr))

	// Replacing the proxy frees the old one.
	require.NoError(t, policy.SetProxyVoter(voterA, voterC))
	assert.Equal(t, proxyAddr, policy.Principal(proxyAddr))
	require.NoError(t, policy.SetProxyVoter(voterB, proxyAddr))
	assert.Equal(t, voterB, policy.Principal(proxyAddr))

	// Clearing.
	require.NoError(t, policy.SetProxyVoter(voterA, common.Address{}))
	_, ok := policy.ProxyOf(voterA)
	assert.False(t, ok)
	assert.Equal(t, voterC, policy.Principal(voterC))
}

func TestProviderProxiesDoNotChain(t *testing.T) {
	registry := NewInMemoryVoterRegistry(mockEpochClock{length: providerEpoch})
	policy := NewProviderPolicy(registry, maintainer)

	assert.ErrorIs(t, policy.SetProxyVoter(voterA, voterA), ErrProxyConflict)

	require.NoError(t, policy.SetProxyVoter(voterA, voterB))
	// B already acts for A and cannot hand its own vote on.
	assert.ErrorIs(t, policy.SetProxyVoter(voterB, voterA), ErrProxyConflict)
	assert.ErrorIs(t, policy.SetProxyVoter(voterB, voterC), ErrProxyConflict)
	// A appointed a proxy and cannot serve as one.
	assert.ErrorIs(t, policy.SetProxyVoter(voterC, voterA), ErrProxyConflict)

	assert.Equal(t, voterA, policy.Principal(voterB))
	assert.Equal(t, voterA, policy.Principal(voterA))
	assert.Equal(t, voterC, policy.Principal(voterC))
	_, ok := policy.ProxyOf(voterB)
	assert.False(t, ok)
}

func TestProviderGovernor(t *testing.T) {
	g, policy := newProviderGovernor(t)
	ctx := context.Background()
	require.NoError(t, policy.SetProxyVoter(voterA, proxyAddr))

	settings := testSettings()
	settings.ThresholdConditionBIPS = 5000

	_, err := g.Propose(ctx, voterC, textContent("unregistered"), settings, 1500)
	assert.ErrorIs(t, err, ErrNotEligible)

	// Polling only.
	_, err = g.Propose(ctx, voterA, callContent("calls", 0), settings, 1500)
	assert.ErrorIs(t, err, ErrInvalidSettings)

	p, err := g.Propose(ctx, proxyAddr, textContent("poll"), settings, 1500)
	require.NoError(t, err)
	assert.Equal(t, voterA, p.Proposer)
	assert.Equal(t, uint64(1), p.SnapshotRef)
	assert.Equal(t, uint64(1000), p.TotalWeight.Uint64())

	weight, err := g.CastVote(p.ID, proxyAddr, SupportFor, 1510)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), weight.Uint64())
	assert.True(t, g.HasVoted(p.ID, voterA))

	_, err = g.CastVote(p.ID, voterA, SupportFor, 1520)
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	_, err = g.CastVote(p.ID, voterC, SupportFor, 1520)
	assert.ErrorIs(t, err, ErrNotEligible)

	state, err := g.State(p.ID, p.VoteEnd)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, state)
}

func TestProviderMaintainerAndCancel(t *testing.T) {
	g, policy := newProviderGovernor(t)
	ctx := context.Background()
	require.NoError(t, policy.SetProxyVoter(voterB, proxyAddr))

	settings := testSettings()
	settings.VotingStartTs = 1800
	p, err := g.Propose(ctx, maintainer, textContent("maintenance"), settings, 1500)
	require.NoError(t, err)
	assert.Equal(t, maintainer, p.Proposer)

	p, err = g.Propose(ctx, voterB, textContent("by voter"), settings, 1500)
	require.NoError(t, err)

	// The proxy cancels on behalf of its voter.
	assert.ErrorIs(t, g.Cancel(p.ID, voterA, 1600), ErrNotProposer)
	require.NoError(t, g.Cancel(p.ID, proxyAddr, 1600))
}

func TestProviderVotersOfOtherEpoch(t *testing.T) {
	g, _ := newProviderGovernor(t)

	// Registered in epoch 1 only: cannot propose in epoch 2.
	_, err := g.Propose(context.Background(), voterA, textContent("epoch two"), testSettings(), 2500)
	assert.ErrorIs(t, err, ErrNotEligible)
}

func TestVoterRegistry(t *testing.T) {
	registry := NewInMemoryVoterRegistry(mockEpochClock{length: providerEpoch})
	require.NoError(t, registry.Register(voterA, 3, uint256.NewInt(10)))
	require.NoError(t, registry.Register(voterB, 3, uint256.NewInt(20)))
	assert.ErrorIs(t, registry.Register(voterC, 3, new(uint256.Int)), ErrNotEligible)

	total, count, err := registry.TotalWeight(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), total.Uint64())
	assert.Equal(t, 2, count)

	registry.Unregister(voterA, 3)
	assert.False(t, registry.IsRegistered(voterA, 3))
	weight, err := registry.WeightOf(voterA, 3)
	require.NoError(t, err)
	assert.True(t, weight.IsZero())
	assert.ElementsMatch(t, []common.Address{voterB}, registry.Voters(3))

	epoch, start := registry.CurrentEpoch(3500)
	assert.Equal(t, uint64(3), epoch)
	assert.Equal(t, uint64(3000), start)
}
