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

// EpochClock maps timestamps to reward epochs of fixed length.
type EpochClock struct {
	config EpochConfig
}

// NewEpochClock creates a clock for the given schedule.
func NewEpochClock(config *EpochConfig) (*EpochClock, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EpochClock{config: *config}, nil
}

// CurrentEpoch returns the reward epoch active at now and its start time.
// Times before the first epoch map to epoch zero.
func (c *EpochClock) CurrentEpoch(now uint64) (uint64, uint64) {
	if now < c.config.FirstEpochStartTs {
		return 0, c.config.FirstEpochStartTs
	}
	epoch := (now - c.config.FirstEpochStartTs) / c.config.EpochDurationSeconds
	return epoch, c.EpochStart(epoch)
}

// EpochStart returns the start time of the reward epoch.
func (c *EpochClock) EpochStart(epoch uint64) uint64 {
	return c.config.FirstEpochStartTs + epoch*c.config.EpochDurationSeconds
}

// EpochEnd returns the first timestamp after the reward epoch.
func (c *EpochClock) EpochEnd(epoch uint64) uint64 {
	return c.EpochStart(epoch + 1)
}
