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

// Package genesis predicts where governor contracts end up when deployed, so
// that a governor identity can be configured before the deployment happens.
package genesis

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// create2Prefix starts every CREATE2 preimage.
const create2Prefix = 0xff

// CalculateContractAddress returns the address of a contract created with
// CREATE by deployer at the given nonce: keccak256(rlp([deployer, nonce]))[12:].
func CalculateContractAddress(deployer common.Address, nonce uint64) common.Address {
	enc, err := rlp.EncodeToBytes([]interface{}{deployer, nonce})
	if err != nil {
		panic(err) // an address and an integer always encode
	}
	return addressOf(crypto.Keccak256(enc))
}

// CalculateCreate2Address returns the address of a contract created with
// CREATE2 by deployer: keccak256(0xff ++ deployer ++ salt ++ initCodeHash)[12:].
func CalculateCreate2Address(deployer common.Address, salt [32]byte, initCodeHash [32]byte) common.Address {
	return addressOf(crypto.Keccak256([]byte{create2Prefix}, deployer.Bytes(), salt[:], initCodeHash[:]))
}

func addressOf(hash []byte) common.Address {
	return common.BytesToAddress(hash[len(hash)-common.AddressLength:])
}

// GovernorAddresses are the addresses of the three governors of a network.
type GovernorAddresses struct {
	Foundation      common.Address
	Provider        common.Address
	ManagementGroup common.Address
}

// PredictGovernorAddresses predicts the governor addresses when the
// deployer creates them in order starting at nonce.
func PredictGovernorAddresses(deployer common.Address, nonce uint64) GovernorAddresses {
	return GovernorAddresses{
		Foundation:      CalculateContractAddress(deployer, nonce),
		Provider:        CalculateContractAddress(deployer, nonce+1),
		ManagementGroup: CalculateContractAddress(deployer, nonce+2),
	}
}

// GovernorSalt returns the CREATE2 salt of a named governor.
func GovernorSalt(name string) [32]byte {
	return crypto.Keccak256Hash([]byte(name))
}
