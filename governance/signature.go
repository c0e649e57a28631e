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
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,uint256 chainId,address verifyingContract)"))
	ballotTypeHash = crypto.Keccak256Hash([]byte("Ballot(uint256 proposalId,uint8 support)"))

	domainArgs = abi.Arguments{{Type: bytes32Type}, {Type: bytes32Type}, {Type: uint256Type}, {Type: addressType}}
	ballotArgs = abi.Arguments{{Type: bytes32Type}, {Type: bytes32Type}, {Type: uint8Type}}

	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)
	uint8Type, _   = abi.NewType("uint8", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
)

// SignatureVerifier recovers the signer of a ballot digest.
type SignatureVerifier interface {
	Recover(digest common.Hash, sig []byte) (common.Address, error)
}

// ECDSAVerifier recovers secp256k1 signatures in [R || S || V] form. Both
// V in {0, 1} and V in {27, 28} are accepted.
type ECDSAVerifier struct{}

// Recover implements SignatureVerifier.
func (ECDSAVerifier) Recover(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	normalized := common.CopyBytes(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// BallotDigest returns the typed data digest a voter signs to vote by signature.
func BallotDigest(name string, chainID *big.Int, governor common.Address, id common.Hash, support Support) (common.Hash, error) {
	domain, err := domainArgs.Pack([32]byte(domainTypeHash), [32]byte(crypto.Keccak256Hash([]byte(name))), chainID, governor)
	if err != nil {
		return common.Hash{}, err
	}
	ballot, err := ballotArgs.Pack([32]byte(ballotTypeHash), [32]byte(id), uint8(support))
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, crypto.Keccak256(domain), crypto.Keccak256(ballot)), nil
}

// SignBallot signs a ballot digest with key.
func SignBallot(key *ecdsa.PrivateKey, digest common.Hash) ([]byte, error) {
	return crypto.Sign(digest[:], key)
}
