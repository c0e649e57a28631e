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

func TestInMemoryVotePowerHistory(t *testing.T) {
	vp := NewInMemoryVotePower()
	vp.SetWeight(voterA, 10, uint256.NewInt(100))
	vp.SetWeight(voterA, 30, uint256.NewInt(300))
	vp.SetWeight(voterA, 20, uint256.NewInt(200))

	tests := []struct {
		ref  uint64
		want uint64
	}{
		{0, 0}, {9, 0}, {10, 100}, {19, 100}, {20, 200}, {29, 200}, {30, 300}, {1000, 300},
	}
	for _, tt := range tests {
		weight, err := vp.WeightOf(voterA, tt.ref)
		require.NoError(t, err)
		assert.Equal(t, tt.want, weight.Uint64(), "ref=%d", tt.ref)
	}

	// Overwriting a checkpoint.
	vp.SetWeight(voterA, 20, uint256.NewInt(250))
	weight, _ := vp.WeightOf(voterA, 25)
	assert.Equal(t, uint64(250), weight.Uint64())

	// Returned values are copies.
	weight.SetUint64(1)
	weight, _ = vp.WeightOf(voterA, 25)
	assert.Equal(t, uint64(250), weight.Uint64())
}

func TestInMemoryVotePowerSupply(t *testing.T) {
	vp := NewInMemoryVotePower()
	supply, err := vp.CirculatingSupplyAt(5)
	require.NoError(t, err)
	assert.True(t, supply.IsZero())

	vp.SetSupply(5, uint256.NewInt(1000))
	supply, err = vp.CirculatingSupplyAt(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), supply.Uint64())
}

func TestUnitWeightOracle(t *testing.T) {
	weight, err := UnitWeightOracle{}.WeightOf(voterA, 123)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), weight.Uint64())
}
