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

package incentive

import (
	"github.com/ethereum/go-ethereum/common"
)

// Signal combines the epoch clock, the reward ledger and the chill registry
// into the reward signal consumed by management group governors.
type Signal struct {
	*EpochClock
	Ledger *RewardLedger
	Chills *ChillRegistry
}

// NewSignal creates a reward signal.
func NewSignal(clock *EpochClock, ledger *RewardLedger, chills *ChillRegistry) *Signal {
	return &Signal{EpochClock: clock, Ledger: ledger, Chills: chills}
}

// IsInitialized reports whether reward data of the epoch is final.
func (s *Signal) IsInitialized(_ common.Address, epoch uint64) bool {
	return s.Ledger.IsFinalized(epoch)
}

// RewardIsZero reports whether the beneficiary earned nothing in the epoch.
func (s *Signal) RewardIsZero(beneficiary common.Address, epoch uint64) bool {
	return s.Ledger.RewardOf(beneficiary, epoch).IsZero()
}

// ChilledUntil returns the first reward epoch in which addr is no longer chilled.
func (s *Signal) ChilledUntil(addr common.Address) uint64 {
	return s.Chills.ChilledUntil(addr)
}
