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
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	testGovernor = common.HexToAddress("0x7000000000000000000000000000000000000007")
	proposerAddr = common.HexToAddress("0x1000000000000000000000000000000000000001")
	voterA       = common.HexToAddress("0xa000000000000000000000000000000000000001")
	voterB       = common.HexToAddress("0xb000000000000000000000000000000000000002")
	voterC       = common.HexToAddress("0xc000000000000000000000000000000000000003")
	proxyAddr    = common.HexToAddress("0xd000000000000000000000000000000000000004")
	maintainer   = common.HexToAddress("0xe000000000000000000000000000000000000005")
	targetAddr   = common.HexToAddress("0xf000000000000000000000000000000000000006")
)

func testConfig() *Config {
	config := DefaultConfig()
	config.Name = "test"
	config.Address = testGovernor
	return config
}

func testSettings() Settings {
	return Settings{
		Accept:                 true,
		VotingPeriodSeconds:    100,
		ThresholdConditionBIPS: 3000,
		MajorityConditionBIPS:  6000,
		ExecutionDelaySeconds:  10,
		ExecutionPeriodSeconds: 50,
	}
}

func textContent(description string) *Content {
	return &Content{Description: description}
}

func callContent(description string, values ...uint64) *Content {
	c := &Content{Description: description}
	for i, v := range values {
		c.Targets = append(c.Targets, targetAddr)
		c.Values = append(c.Values, uint256.NewInt(v))
		c.Calldatas = append(c.Calldatas, []byte{byte(i), 0xca, 0xfe})
	}
	return c
}

// mockEpochClock has fixed length epochs starting at zero.
type mockEpochClock struct {
	length uint64
}

func (c mockEpochClock) CurrentEpoch(now uint64) (uint64, uint64) {
	epoch := now / c.length
	return epoch, epoch * c.length
}

type dispatchedCall struct {
	target common.Address
	value  *uint256.Int
	data   []byte
}

// mockDispatcher records calls and reverts the call at failAt, if set.
type mockDispatcher struct {
	calls  []dispatchedCall
	failAt int
	revert []byte
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{failAt: -1}
}

func (d *mockDispatcher) Dispatch(_ context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	if len(d.calls) == d.failAt {
		return d.revert, errors.New("execution reverted")
	}
	d.calls = append(d.calls, dispatchedCall{target: target, value: value, data: data})
	return nil, nil
}

// simulatingDispatcher rejects the call at simulateFailAt during simulation.
type simulatingDispatcher struct {
	*mockDispatcher
	simulated      int
	simulateFailAt int
}

func (d *simulatingDispatcher) Simulate(_ context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	if d.simulated == d.simulateFailAt {
		return d.revert, errors.New("execution reverted")
	}
	d.simulated++
	return nil, nil
}

func revertData(t *testing.T, reason string) []byte {
	t.Helper()

	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	return append(crypto.Keccak256([]byte("Error(string)"))[:4], packed...)
}

// newFoundationGovernor creates a foundation governor with a total supply of
// 1000 held by voterA (400), voterB (100) and voterC (500).
func newFoundationGovernor(t *testing.T) (*Governor, *mockDispatcher) {
	t.Helper()

	votePower := NewInMemoryVotePower()
	votePower.SetSupply(0, uint256.NewInt(1000))
	votePower.SetWeight(voterA, 0, uint256.NewInt(400))
	votePower.SetWeight(voterB, 0, uint256.NewInt(100))
	votePower.SetWeight(voterC, 0, uint256.NewInt(500))

	dispatcher := newMockDispatcher()
	g, err := NewGovernor(testConfig(), memorydb.New(), Backends{
		Policy:     NewFoundationPolicy(votePower, proposerAddr),
		VotePower:  votePower,
		Snapshots:  StaticSnapshots{},
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)
	return g, dispatcher
}
