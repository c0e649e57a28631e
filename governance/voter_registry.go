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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// InMemoryVoterRegistry implements VoterRegistry with in-memory storage.
// Registrations are kept per reward epoch.
type InMemoryVoterRegistry struct {
	clock  EpochClock
	mu     sync.RWMutex
	epochs map[uint64]map[common.Address]*uint256.Int
}

// NewInMemoryVoterRegistry creates a new in-memory voter registry
func NewInMemoryVoterRegistry(clock EpochClock) *InMemoryVoterRegistry {
	return &InMemoryVoterRegistry{
		clock:  clock,
		epochs: make(map[uint64]map[common.Address]*uint256.Int),
	}
}

// CurrentEpoch implements EpochClock.
func (vr *InMemoryVoterRegistry) CurrentEpoch(now uint64) (uint64, uint64) {
	return vr.clock.CurrentEpoch(now)
}

// Register registers voter with the given weight for the reward epoch.
func (vr *InMemoryVoterRegistry) Register(voter common.Address, epoch uint64, weight *uint256.Int) error {
	if weight == nil || weight.IsZero() {
		return fmt.Errorf("%w: zero registration weight", ErrNotEligible)
	}
	vr.mu.Lock()
	defer vr.mu.Unlock()

	voters, ok := vr.epochs[epoch]
	if !ok {
		voters = make(map[common.Address]*uint256.Int)
		vr.epochs[epoch] = voters
	}
	voters[voter] = new(uint256.Int).Set(weight)
	return nil
}

// Unregister removes the registration of voter for the reward epoch.
func (vr *InMemoryVoterRegistry) Unregister(voter common.Address, epoch uint64) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	delete(vr.epochs[epoch], voter)
}

// IsRegistered implements VoterRegistry.
func (vr *InMemoryVoterRegistry) IsRegistered(voter common.Address, epoch uint64) bool {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	_, ok := vr.epochs[epoch][voter]
	return ok
}

// WeightOf implements VoterRegistry. Unregistered voters weigh zero.
func (vr *InMemoryVoterRegistry) WeightOf(voter common.Address, epoch uint64) (*uint256.Int, error) {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	weight, ok := vr.epochs[epoch][voter]
	if !ok {
		return new(uint256.Int), nil
	}
	return new(uint256.Int).Set(weight), nil
}

// TotalWeight implements VoterRegistry.
func (vr *InMemoryVoterRegistry) TotalWeight(epoch uint64) (*uint256.Int, int, error) {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	total := new(uint256.Int)
	for _, weight := range vr.epochs[epoch] {
		if _, overflow := total.AddOverflow(total, weight); overflow {
			return nil, 0, fmt.Errorf("total weight of epoch %d overflows", epoch)
		}
	}
	return total, len(vr.epochs[epoch]), nil
}

// Voters returns the voters registered for the reward epoch.
func (vr *InMemoryVoterRegistry) Voters(epoch uint64) []common.Address {
	vr.mu.RLock()
	defer vr.mu.RUnlock()

	voters := make([]common.Address, 0, len(vr.epochs[epoch]))
	for voter := range vr.epochs[epoch] {
		voters = append(voters, voter)
	}
	return voters
}
