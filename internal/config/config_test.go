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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/flare-foundation/go-flare-governance/genesis"
	"github.com/flare-foundation/go-flare-governance/storage"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	proposer = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	deployer = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	governor = common.HexToAddress("0x0000000000000000000000000000000000001001")
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "govctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const foundationConfig = `
[Governor]
Variant = "foundation"
Address = "0x0000000000000000000000000000000000001001"

[Storage]
Engine = "memory"

[Foundation]
Proposers = ["0x00000000000000000000000000000000000000a1"]

[VotePower]
Supply = "1000"

[VotePower.Weights]
"0x00000000000000000000000000000000000000a1" = "400"
`

func TestLoadFoundation(t *testing.T) {
	cfg, err := Load(writeConfig(t, foundationConfig))
	require.NoError(t, err)

	assert.Equal(t, VariantFoundation, cfg.Governor.Variant)
	assert.Equal(t, governor, cfg.Governor.Address)
	assert.Equal(t, storage.EngineMemory, cfg.Storage.Engine)
	assert.Equal(t, []common.Address{proposer}, cfg.Foundation.Proposers)

	// Defaults survive for keys the file does not set.
	assert.Equal(t, uint64(14), cfg.Governor.ChainID)
	assert.Equal(t, uint64(7500), cfg.Settings.ThresholdConditionBIPS)
	assert.Equal(t, uint64(302400), cfg.Epochs.EpochDurationSeconds)

	weights, supply, err := cfg.VotePowerWeights()
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1000), supply)
	assert.Equal(t, uint256.NewInt(400), weights[proposer])

	gov := cfg.GovernanceConfig()
	assert.Equal(t, int64(14), gov.ChainID.Int64())
	assert.Equal(t, governor, gov.Address)
}

func TestLoadDerivesAddress(t *testing.T) {
	content := `
[Governor]
Variant = "management"

[Governor.Deployment]
Deployer = "0x00000000000000000000000000000000000000d1"
Nonce = 3

[Storage]
Engine = "memory"

[ManagementGroup]
Maintainer = "0x00000000000000000000000000000000000000a1"
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, genesis.CalculateContractAddress(deployer, 3), cfg.Governor.Address)
	assert.Equal(t, uint64(16), cfg.ManagementGroup.Params.RemoveAfterNotRewardedEpochs)
}

func TestLoadAddressMismatch(t *testing.T) {
	content := foundationConfig + `
[Governor.Deployment]
Deployer = "0x00000000000000000000000000000000000000d1"
Nonce = 3
`
	_, err := Load(writeConfig(t, content))
	assert.ErrorContains(t, err, "governor address mismatch")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", foundationConfig + "\n[Dispatch]\nGasLimt = 5\n", "unknown config key"},
		{"no address", "[Foundation]\nProposers = [\"0x00000000000000000000000000000000000000a1\"]\n", "governor address required"},
		{"unknown variant", "[Governor]\nVariant = \"council\"\nAddress = \"0x0000000000000000000000000000000000001001\"\n", "unknown governor variant"},
		{"no proposers", "[Governor]\nAddress = \"0x0000000000000000000000000000000000001001\"\n", "at least one proposer"},
		{"bad weight", foundationConfig + "\"0x00000000000000000000000000000000000000a2\" = \"-1\"\n", "invalid amount"},
		{"bad engine", strings.Replace(foundationConfig, `"memory"`, `"rocksdb"`, 1), "unknown storage engine"},
		{"state rewards without contract", foundationConfig + "\n[Rewards]\nSource = \"state\"\n", "reward contract required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GOVCTL_GOVERNOR", "0x0000000000000000000000000000000000002002")
	t.Setenv("GOVCTL_DATADIR", "/tmp/gov")
	t.Setenv("GOVCTL_DISPATCH_KEY", "deadbeef")

	cfg, err := Load(writeConfig(t, foundationConfig))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x0000000000000000000000000000000000002002"), cfg.Governor.Address)
	assert.Equal(t, "/tmp/gov", cfg.Storage.DataDir)
	assert.Equal(t, "deadbeef", cfg.Dispatch.Key)
}

func TestDumpOmitsKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, foundationConfig))
	require.NoError(t, err)
	cfg.Dispatch.Key = "secret"

	var buf bytes.Buffer
	require.NoError(t, cfg.Dump(&buf))
	assert.NotContains(t, buf.String(), "secret")

	reloaded, err := Load(writeConfig(t, buf.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg.Governor, reloaded.Governor)
	assert.Equal(t, cfg.Settings, reloaded.Settings)
}
