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
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// UnitWeightOracle gives every voter a weight of one.
type UnitWeightOracle struct{}

// WeightOf implements VotePowerOracle.
func (UnitWeightOracle) WeightOf(common.Address, uint64) (*uint256.Int, error) {
	return uint256.NewInt(1), nil
}

type checkpoint struct {
	ref    uint64
	weight *uint256.Int
}

// checkpoints is a history of values ordered by snapshot reference.
type checkpoints []checkpoint

func (cs checkpoints) at(ref uint64) *uint256.Int {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].ref > ref })
	if i == 0 {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(cs[i-1].weight)
}

func (cs checkpoints) set(ref uint64, weight *uint256.Int) checkpoints {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].ref >= ref })
	cp := checkpoint{ref: ref, weight: new(uint256.Int).Set(weight)}
	if i < len(cs) && cs[i].ref == ref {
		cs[i] = cp
		return cs
	}
	cs = append(cs, checkpoint{})
	copy(cs[i+1:], cs[i:])
	cs[i] = cp
	return cs
}

// InMemoryVotePower keeps vote power and circulating supply histories in
// memory. A value set at a reference holds for every later reference until
// it is set again.
type InMemoryVotePower struct {
	mu     sync.RWMutex
	powers map[common.Address]checkpoints
	supply checkpoints
}

// NewInMemoryVotePower creates an empty vote power history.
func NewInMemoryVotePower() *InMemoryVotePower {
	return &InMemoryVotePower{powers: make(map[common.Address]checkpoints)}
}

// SetWeight records the vote power of addr from ref onwards.
func (vp *InMemoryVotePower) SetWeight(addr common.Address, ref uint64, weight *uint256.Int) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	vp.powers[addr] = vp.powers[addr].set(ref, weight)
}

// SetSupply records the circulating supply from ref onwards.
func (vp *InMemoryVotePower) SetSupply(ref uint64, supply *uint256.Int) {
	vp.mu.Lock()
	defer vp.mu.Unlock()

	vp.supply = vp.supply.set(ref, supply)
}

// WeightOf implements VotePowerOracle.
func (vp *InMemoryVotePower) WeightOf(addr common.Address, ref uint64) (*uint256.Int, error) {
	vp.mu.RLock()
	defer vp.mu.RUnlock()

	return vp.powers[addr].at(ref), nil
}

// CirculatingSupplyAt implements SupplySource.
func (vp *InMemoryVotePower) CirculatingSupplyAt(ref uint64) (*uint256.Int, error) {
	vp.mu.RLock()
	defer vp.mu.RUnlock()

	return vp.supply.at(ref), nil
}
