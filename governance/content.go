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

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// proposalIDArgs mirrors abi.encode(uint256, address, address[], uint256[], bytes[], bytes32).
var proposalIDArgs = func() abi.Arguments {
	mustType := func(t string) abi.Type {
		typ, err := abi.NewType(t, "", nil)
		if err != nil {
			panic(err)
		}
		return typ
	}
	return abi.Arguments{
		{Name: "chainId", Type: mustType("uint256")},
		{Name: "governor", Type: mustType("address")},
		{Name: "targets", Type: mustType("address[]")},
		{Name: "values", Type: mustType("uint256[]")},
		{Name: "calldatas", Type: mustType("bytes[]")},
		{Name: "descriptionHash", Type: mustType("bytes32")},
	}
}()

// DescriptionHash returns keccak256 of the proposal description.
func (c *Content) DescriptionHash() common.Hash {
	return crypto.Keccak256Hash([]byte(c.Description))
}

// Validate checks that the call arrays are consistent.
func (c *Content) Validate() error {
	if len(c.Targets) != len(c.Values) || len(c.Targets) != len(c.Calldatas) {
		return fmt.Errorf("%w: %d targets, %d values, %d calldatas",
			ErrInvalidSettings, len(c.Targets), len(c.Values), len(c.Calldatas))
	}
	return nil
}

// ComputeProposalID derives the identifier of a proposal from its content,
// domain separated by chain id and governor address so that identical
// content yields different ids on different chains and governor instances.
func ComputeProposalID(chainID *big.Int, governor common.Address, content *Content) (common.Hash, error) {
	if err := content.Validate(); err != nil {
		return common.Hash{}, err
	}
	values := make([]*big.Int, len(content.Values))
	for i, v := range content.Values {
		if v == nil {
			values[i] = new(big.Int)
		} else {
			values[i] = v.ToBig()
		}
	}
	targets := content.Targets
	if targets == nil {
		targets = []common.Address{}
	}
	calldatas := content.Calldatas
	if calldatas == nil {
		calldatas = [][]byte{}
	}
	encoded, err := proposalIDArgs.Pack(chainID, governor, targets, values, calldatas, [32]byte(content.DescriptionHash()))
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}
