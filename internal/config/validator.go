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

package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-governance/storage"
)

// ValidateParameters checks the configuration for consistency. When the
// governor address is both configured and derivable from its deployment,
// the two must agree; a derivable address fills an unset one.
func ValidateParameters(cfg *Config) error {
	if dep := cfg.Governor.Deployment; dep != nil {
		derived, err := dep.Address()
		if err != nil {
			return fmt.Errorf("governor deployment: %w", err)
		}
		if cfg.Governor.Address != (common.Address{}) && cfg.Governor.Address != derived {
			return fmt.Errorf(
				"governor address mismatch: configured=%s, deployment=%s. "+
					"Remove one of them or fix the deployment parameters",
				cfg.Governor.Address.Hex(),
				derived.Hex(),
			)
		}
		cfg.Governor.Address = derived
	}
	if cfg.Governor.Address == (common.Address{}) {
		return errors.New("governor address required")
	}
	if cfg.Governor.ChainID == 0 {
		return errors.New("chain id must be positive")
	}
	if cfg.Governor.MaxProposalDurationSeconds == 0 {
		return errors.New("max proposal duration must be positive")
	}
	switch cfg.Storage.Engine {
	case storage.EngineMemory:
	case storage.EngineLevelDB:
		if cfg.Storage.DataDir == "" {
			return errors.New("data directory required for leveldb")
		}
	default:
		return fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
	if err := cfg.Epochs.Validate(); err != nil {
		return err
	}
	if err := cfg.Rewards.Validate(); err != nil {
		return err
	}

	switch cfg.Governor.Variant {
	case VariantFoundation:
		if len(cfg.Foundation.Proposers) == 0 {
			return errors.New("foundation governor needs at least one proposer")
		}
		if _, _, err := cfg.VotePowerWeights(); err != nil {
			return err
		}
	case VariantProvider:
		if cfg.Provider.Maintainer == (common.Address{}) {
			return errors.New("provider governor needs a maintainer")
		}
		for i, r := range cfg.Provider.Registrations {
			if _, err := parseAmount(r.Weight); err != nil {
				return fmt.Errorf("registration %d: %w", i, err)
			}
		}
	case VariantManagementGroup:
		if cfg.ManagementGroup.Maintainer == (common.Address{}) {
			return errors.New("management group needs a maintainer")
		}
		if err := cfg.ManagementGroup.Params.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown governor variant %q", cfg.Governor.Variant)
	}
	return nil
}
