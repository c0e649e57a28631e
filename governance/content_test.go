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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProposalIDDeterministic(t *testing.T) {
	chainID := big.NewInt(14)
	content := callContent("upgrade", 1, 2)

	id1, err := ComputeProposalID(chainID, testGovernor, content)
	require.NoError(t, err)
	id2, err := ComputeProposalID(chainID, testGovernor, callContent("upgrade", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, common.Hash{}, id1)
}

func TestComputeProposalIDDomainSeparation(t *testing.T) {
	content := textContent("text only")

	flare, err := ComputeProposalID(big.NewInt(14), testGovernor, content)
	require.NoError(t, err)
	songbird, err := ComputeProposalID(big.NewInt(19), testGovernor, content)
	require.NoError(t, err)
	other, err := ComputeProposalID(big.NewInt(14), targetAddr, content)
	require.NoError(t, err)

	assert.NotEqual(t, flare, songbird)
	assert.NotEqual(t, flare, other)
}

func TestComputeProposalIDMutations(t *testing.T) {
	chainID := big.NewInt(14)
	base, err := ComputeProposalID(chainID, testGovernor, callContent("upgrade", 1, 2))
	require.NoError(t, err)

	mutations := map[string]func(c *Content){
		"target":      func(c *Content) { c.Targets[1] = voterA },
		"value":       func(c *Content) { c.Values[0] = uint256.NewInt(3) },
		"calldata":    func(c *Content) { c.Calldatas[1][2] ^= 0x01 },
		"description": func(c *Content) { c.Description = "upgrade!" },
		"extra call": func(c *Content) {
			c.Targets = append(c.Targets, targetAddr)
			c.Values = append(c.Values, new(uint256.Int))
			c.Calldatas = append(c.Calldatas, nil)
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			content := callContent("upgrade", 1, 2)
			mutate(content)
			id, err := ComputeProposalID(chainID, testGovernor, content)
			require.NoError(t, err)
			assert.NotEqual(t, base, id)
		})
	}
}

func TestContentValidate(t *testing.T) {
	content := callContent("broken", 1, 2)
	content.Values = content.Values[:1]

	err := content.Validate()
	assert.True(t, errors.Is(err, ErrInvalidSettings))

	_, err = ComputeProposalID(big.NewInt(14), testGovernor, content)
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestContentTotalValue(t *testing.T) {
	total, ok := callContent("pay", 5, 7).TotalValue()
	require.True(t, ok)
	assert.Equal(t, uint64(12), total.Uint64())

	max := new(uint256.Int).SetAllOne()
	content := &Content{
		Targets:   []common.Address{targetAddr, targetAddr},
		Values:    []*uint256.Int{max, uint256.NewInt(1)},
		Calldatas: [][]byte{nil, nil},
	}
	_, ok = content.TotalValue()
	assert.False(t, ok)
}
