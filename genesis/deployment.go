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

package genesis

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// DeploymentConfig describes how a governor contract is deployed, so that its
// address can be derived instead of configured.
type DeploymentConfig struct {
	// Deployer is the account creating the contract (CREATE) or the
	// factory contract (CREATE2).
	Deployer common.Address

	// Nonce of the deployer when creating the contract with CREATE
	Nonce uint64

	// Salt selects CREATE2 when set.
	Salt string

	// InitCode of the contract for CREATE2
	InitCode hexutil.Bytes
}

// Address returns the contract address resulting from the deployment.
func (c *DeploymentConfig) Address() (common.Address, error) {
	if c.Deployer == (common.Address{}) {
		return common.Address{}, errors.New("deployer address required")
	}
	if c.Salt == "" {
		return CalculateContractAddress(c.Deployer, c.Nonce), nil
	}
	return CalculateCreate2Address(c.Deployer, GovernorSalt(c.Salt), crypto.Keccak256Hash(c.InitCode)), nil
}
