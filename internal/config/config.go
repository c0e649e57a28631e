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
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-governance/genesis"
	"github.com/flare-foundation/go-flare-governance/governance"
	"github.com/flare-foundation/go-flare-governance/incentive"
	"github.com/flare-foundation/go-flare-governance/storage"
	"github.com/holiman/uint256"
)

// Governor variants
const (
	VariantFoundation      = "foundation"
	VariantProvider        = "provider"
	VariantManagementGroup = "management"
)

// Config is the configuration of govctl, read from a TOML file and
// overridden from the environment.
type Config struct {
	Governor        GovernorConfig
	Storage         storage.Config
	Epochs          incentive.EpochConfig
	Rewards         incentive.RewardConfig
	Settings        governance.Settings // defaults for new proposals
	Foundation      FoundationConfig
	Provider        ProviderConfig
	ManagementGroup ManagementGroupConfig
	VotePower       VotePowerConfig
	Dispatch        DispatchConfig
}

// GovernorConfig identifies the governor instance.
type GovernorConfig struct {
	Variant                    string
	Name                       string
	ChainID                    uint64
	Address                    common.Address
	Deployment                 *genesis.DeploymentConfig `toml:",omitempty"` // derives Address when set
	MaxProposalDurationSeconds uint64
}

// FoundationConfig configures the foundation variant.
type FoundationConfig struct {
	Proposers []common.Address
}

// Registration is a voter registered for one reward epoch.
type Registration struct {
	Epoch  uint64
	Voter  common.Address
	Weight string // decimal
}

// ProxyVoter lets Proxy act for Voter.
type ProxyVoter struct {
	Voter common.Address
	Proxy common.Address
}

// ProviderConfig configures the provider variant.
type ProviderConfig struct {
	Maintainer    common.Address
	Registrations []Registration
	Proxies       []ProxyVoter
}

// ManagementGroupConfig configures the management group variant.
type ManagementGroupConfig struct {
	Maintainer common.Address
	Members    []common.Address // seeded by the maintainer when the group is empty
	Params     governance.ManagementGroupParams
}

// VotePowerConfig configures the vote power source of the foundation variant.
type VotePowerConfig struct {
	// RPC endpoint used to pick vote power blocks from chain headers. Without
	// it the creation time is used as snapshot.
	RPC string

	Supply  string            // circulating supply, decimal
	Weights map[string]string // address -> decimal vote power
}

// DispatchConfig configures how approved calls are sent.
type DispatchConfig struct {
	// RPC endpoint calls are sent to. Without it calls are only recorded.
	RPC            string
	GasLimit       uint64
	ReceiptTimeout time.Duration

	// Key is the hex encoded private key of the sending account. It is only
	// read from the environment.
	Key string `toml:"-"`
}

// Default returns the default configuration: a foundation governor on Flare
// backed by a leveldb database.
func Default() *Config {
	gov := governance.DefaultConfig()
	return &Config{
		Governor: GovernorConfig{
			Variant:                    VariantFoundation,
			Name:                       gov.Name,
			ChainID:                    gov.ChainID.Uint64(),
			MaxProposalDurationSeconds: gov.MaxProposalDurationSeconds,
		},
		Storage:         *storage.DefaultConfig(),
		Epochs:          *incentive.DefaultEpochConfig(),
		Rewards:         incentive.RewardConfig{Source: incentive.SourceLedger},
		Settings:        governance.DefaultSettings(),
		ManagementGroup: ManagementGroupConfig{Params: governance.DefaultManagementGroupParams()},
		VotePower:       VotePowerConfig{Supply: "0"},
		Dispatch: DispatchConfig{
			GasLimit:       1_000_000,
			ReceiptTimeout: 2 * time.Minute,
		},
	}
}

// Load reads the configuration file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path loads the
// defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
		}
	}
	applyEnv(cfg)
	if err := ValidateParameters(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dump writes the configuration as TOML.
func (c *Config) Dump(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// GovernanceConfig returns the governor instance parameters.
func (c *Config) GovernanceConfig() *governance.Config {
	return &governance.Config{
		Name:                       c.Governor.Name,
		ChainID:                    new(big.Int).SetUint64(c.Governor.ChainID),
		Address:                    c.Governor.Address,
		MaxProposalDurationSeconds: c.Governor.MaxProposalDurationSeconds,
	}
}

// VotePowerWeights parses the configured vote power table.
func (c *Config) VotePowerWeights() (map[common.Address]*uint256.Int, *uint256.Int, error) {
	supply, err := parseAmount(c.VotePower.Supply)
	if err != nil {
		return nil, nil, fmt.Errorf("vote power supply: %w", err)
	}
	weights := make(map[common.Address]*uint256.Int, len(c.VotePower.Weights))
	for addr, w := range c.VotePower.Weights {
		if !common.IsHexAddress(addr) {
			return nil, nil, fmt.Errorf("vote power: invalid address %q", addr)
		}
		weight, err := parseAmount(w)
		if err != nil {
			return nil, nil, fmt.Errorf("vote power of %s: %w", addr, err)
		}
		weights[common.HexToAddress(addr)] = weight
	}
	return weights, supply, nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnv overrides the file configuration from GOVCTL_* variables.
func applyEnv(cfg *Config) {
	cfg.Governor.Variant = getEnvOrDefault("GOVCTL_VARIANT", cfg.Governor.Variant)
	cfg.Storage.DataDir = getEnvOrDefault("GOVCTL_DATADIR", cfg.Storage.DataDir)
	cfg.VotePower.RPC = getEnvOrDefault("GOVCTL_RPC", cfg.VotePower.RPC)
	cfg.Dispatch.RPC = getEnvOrDefault("GOVCTL_DISPATCH_RPC", cfg.Dispatch.RPC)
	cfg.Dispatch.Key = getEnvOrDefault("GOVCTL_DISPATCH_KEY", cfg.Dispatch.Key)

	if addr := os.Getenv("GOVCTL_GOVERNOR"); common.IsHexAddress(addr) {
		cfg.Governor.Address = common.HexToAddress(addr)
	}
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// Amount parses the registered weight.
func (r Registration) Amount() (*uint256.Int, error) {
	return parseAmount(r.Weight)
}
