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
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Reward data sources.
const (
	SourceLedger = "ledger" // reward ledger and chill registry records
	SourceState  = "state"  // storage of the reward contract in a state trie
)

// EpochConfig describes the reward epoch schedule.
type EpochConfig struct {
	// Start of reward epoch zero (unix seconds)
	FirstEpochStartTs uint64

	// Length of a reward epoch
	EpochDurationSeconds uint64
}

// DefaultEpochConfig returns the Flare reward epoch schedule: epochs of
// three and a half days starting on 2022-07-21.
func DefaultEpochConfig() *EpochConfig {
	return &EpochConfig{
		FirstEpochStartTs:    1658430000,
		EpochDurationSeconds: 302400,
	}
}

// Validate checks the schedule.
func (c *EpochConfig) Validate() error {
	if c.EpochDurationSeconds == 0 {
		return errors.New("reward epoch duration must be positive")
	}
	return nil
}

// RewardConfig selects where management groups read reward data from.
type RewardConfig struct {
	Source string

	// Reward contract whose storage holds the data of the state source
	Contract common.Address
}

// Validate checks the reward source.
func (c *RewardConfig) Validate() error {
	switch c.Source {
	case "", SourceLedger:
		return nil
	case SourceState:
		if c.Contract == (common.Address{}) {
			return errors.New("reward contract required for the state source")
		}
		return nil
	default:
		return fmt.Errorf("unknown reward source %q", c.Source)
	}
}
