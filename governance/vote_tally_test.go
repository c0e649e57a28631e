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
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteTallyRecordVote(t *testing.T) {
	tally := NewVoteTally(memorydb.New(), testGovernor)
	id := common.Hash{0x01}

	votes, err := tally.RecordVote(id, voterA, SupportFor, uint256.NewInt(400))
	require.NoError(t, err)
	assert.Equal(t, uint64(400), votes.For.Uint64())
	assert.True(t, votes.Against.IsZero())

	votes, err = tally.RecordVote(id, voterB, SupportAgainst, uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(400), votes.For.Uint64())
	assert.Equal(t, uint64(100), votes.Against.Uint64())

	assert.True(t, tally.HasVoted(id, voterA))
	assert.False(t, tally.HasVoted(id, voterC))
	assert.False(t, tally.HasVoted(common.Hash{0x02}, voterA))

	receipt, ok := tally.Receipt(id, voterB)
	require.True(t, ok)
	assert.Equal(t, SupportAgainst, receipt.Support)
	assert.Equal(t, uint64(100), receipt.Weight.Uint64())
}

func TestVoteTallyRejectsSecondVote(t *testing.T) {
	tally := NewVoteTally(memorydb.New(), testGovernor)
	id := common.Hash{0x01}

	_, err := tally.RecordVote(id, voterA, SupportFor, uint256.NewInt(400))
	require.NoError(t, err)
	_, err = tally.RecordVote(id, voterA, SupportAgainst, uint256.NewInt(400))
	assert.ErrorIs(t, err, ErrAlreadyVoted)

	votes, err := tally.VotesOf(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), votes.For.Uint64())
	assert.True(t, votes.Against.IsZero())
}

func TestVoteTallyInvalidSupport(t *testing.T) {
	tally := NewVoteTally(memorydb.New(), testGovernor)
	id := common.Hash{0x01}

	_, err := tally.RecordVote(id, voterA, Support(2), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidSupport)
	assert.False(t, tally.HasVoted(id, voterA))
}

func TestVoteTallyWeightOverflow(t *testing.T) {
	tally := NewVoteTally(memorydb.New(), testGovernor)
	id := common.Hash{0x01}

	maxWeight := new(uint256.Int).SetAllOne()
	_, err := tally.RecordVote(id, voterA, SupportFor, maxWeight)
	require.NoError(t, err)
	_, err = tally.RecordVote(id, voterB, SupportAgainst, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrWeightOverflow)
	assert.False(t, tally.HasVoted(id, voterB))
}

func TestVoteTallyConcurrentVotes(t *testing.T) {
	tally := NewVoteTally(memorydb.New(), testGovernor)
	id := common.Hash{0x01}

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tally.RecordVote(id, voterA, SupportFor, uint256.NewInt(10)); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	votes, err := tally.VotesOf(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), votes.For.Uint64())
}

func TestVoteTallyNamespaces(t *testing.T) {
	db := memorydb.New()
	first := NewVoteTally(db, testGovernor)
	second := NewVoteTally(db, targetAddr)
	id := common.Hash{0x01}

	_, err := first.RecordVote(id, voterA, SupportFor, uint256.NewInt(1))
	require.NoError(t, err)
	assert.False(t, second.HasVoted(id, voterA))
}
