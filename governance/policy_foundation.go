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
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// FoundationPolicy is the eligibility policy of the foundation governor.
// Only allow-listed addresses may propose, every token holder votes with its
// vote power and the quorum is measured against the circulating supply.
type FoundationPolicy struct {
	proposers mapset.Set[common.Address]
	supply    SupplySource
}

// NewFoundationPolicy creates a foundation policy with the given proposers.
func NewFoundationPolicy(supply SupplySource, proposers ...common.Address) *FoundationPolicy {
	return &FoundationPolicy{
		proposers: mapset.NewSet(proposers...),
		supply:    supply,
	}
}

// SetProposers adds and removes allow-listed proposers. Removal is applied
// after addition.
func (fp *FoundationPolicy) SetProposers(add, remove []common.Address) {
	fp.proposers.Append(add...)
	for _, addr := range remove {
		fp.proposers.Remove(addr)
	}
	log.Debug("Foundation proposers updated", "added", len(add), "removed", len(remove), "total", fp.proposers.Cardinality())
}

// IsProposer reports whether addr is allow-listed.
func (fp *FoundationPolicy) IsProposer(addr common.Address) bool {
	return fp.proposers.Contains(addr)
}

// Proposers returns the allow-listed proposers.
func (fp *FoundationPolicy) Proposers() []common.Address {
	return fp.proposers.ToSlice()
}

func (fp *FoundationPolicy) Principal(caller common.Address) common.Address { return caller }

func (fp *FoundationPolicy) CanPropose(caller common.Address, _ uint64) bool {
	return fp.proposers.Contains(caller)
}

func (fp *FoundationPolicy) CanVote(common.Address, *Proposal) bool { return true }

func (fp *FoundationPolicy) CanCancel(caller, proposer common.Address) bool {
	return caller == proposer
}

func (fp *FoundationPolicy) QuorumBasis(snapshot Snapshot) (*uint256.Int, error) {
	return fp.supply.CirculatingSupplyAt(snapshot.Ref)
}

func (fp *FoundationPolicy) Rounding() Rounding { return RoundDown }

func (fp *FoundationPolicy) ExecutionCapable() bool { return true }
