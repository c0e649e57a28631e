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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds the instance-level parameters of a governor.
type Config struct {
	Name                       string         // used in logs, metrics and the key prefix
	ChainID                    *big.Int       // chain id mixed into proposal ids and vote digests
	Address                    common.Address // governor contract identity
	MaxProposalDurationSeconds uint64         // max distance between snapshot and voting end
}

// DefaultConfig returns the default governor configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:                       "governor",
		ChainID:                    big.NewInt(14),
		MaxProposalDurationSeconds: 30 * 24 * 3600, // vote power history is kept for roughly a month
	}
}

// DefaultSettings returns proposal settings commonly used for foundation proposals.
func DefaultSettings() Settings {
	return Settings{
		Accept:                 true,
		VotingPeriodSeconds:    7 * 24 * 3600,
		VpBlockPeriodSeconds:   7 * 24 * 3600,
		ThresholdConditionBIPS: 7500,
		MajorityConditionBIPS:  5000,
		ExecutionDelaySeconds:  2 * 24 * 3600,
		ExecutionPeriodSeconds: 7 * 24 * 3600,
	}
}

// Validate checks the bounds of the settings. Execution parameters are only
// checked when the proposal carries on-chain calls.
func (s *Settings) Validate(executable bool) error {
	if s.VotingPeriodSeconds == 0 {
		return fmt.Errorf("%w: zero voting period", ErrInvalidSettings)
	}
	if s.ThresholdConditionBIPS > MaxBIPS {
		return fmt.Errorf("%w: threshold condition %d above %d", ErrInvalidSettings, s.ThresholdConditionBIPS, MaxBIPS)
	}
	if s.MajorityConditionBIPS < MaxBIPS/2 || s.MajorityConditionBIPS > MaxBIPS {
		return fmt.Errorf("%w: majority condition %d outside [%d, %d]", ErrInvalidSettings, s.MajorityConditionBIPS, MaxBIPS/2, MaxBIPS)
	}
	if executable && s.ExecutionPeriodSeconds == 0 {
		return fmt.Errorf("%w: zero execution period", ErrInvalidSettings)
	}
	return nil
}

func (c *Config) validate() error {
	if c.ChainID == nil || c.ChainID.Sign() <= 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidSettings)
	}
	if c.MaxProposalDurationSeconds == 0 {
		return fmt.Errorf("%w: zero max proposal duration", ErrInvalidSettings)
	}
	return nil
}
