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
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// The low level database schema of a governor. Every key starts with the
// governor namespace so that several governors can share one database.
var (
	proposalPrefix      = []byte("p") // ns + proposalPrefix + id -> rlp(storedProposal)
	proposalIndexPrefix = []byte("i") // ns + proposalIndexPrefix + num (uint64 big endian) -> id
	proposalCountKey    = []byte("n") // ns + proposalCountKey -> number of proposals
	execCursorKey       = []byte("c") // ns + execCursorKey -> next execution start time
	votesPrefix         = []byte("v") // ns + votesPrefix + id -> rlp(storedVotes)
	receiptPrefix       = []byte("r") // ns + receiptPrefix + id + voter -> rlp(storedReceipt)
	memberPrefix        = []byte("m") // ns + memberPrefix + address -> rlp(storedMember)
	removalPrefix       = []byte("x") // ns + removalPrefix + address -> last removal time
	dispatchedPrefix    = []byte("d") // ns + dispatchedPrefix + id -> number of calls already dispatched
)

func namespace(governor common.Address) []byte {
	return append([]byte("gov"), governor.Bytes()...)
}

func makeKey(ns []byte, prefix []byte, parts ...[]byte) []byte {
	size := len(ns) + len(prefix)
	for _, p := range parts {
		size += len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, ns...)
	key = append(key, prefix...)
	for _, p := range parts {
		key = append(key, p...)
	}
	return key
}

func encodeUint64(n uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, n)
	return enc
}

func decodeUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// storedProposal is the rlp representation of a Proposal.
type storedProposal struct {
	Proposer               common.Address
	Accept                 bool
	SnapshotRef            uint64
	SnapshotTimestamp      uint64
	CreatedAt              uint64
	VoteStart              uint64
	VoteEnd                uint64
	ExecStart              uint64
	ExecEnd                uint64
	ThresholdConditionBIPS uint64
	MajorityConditionBIPS  uint64
	TotalWeight            *big.Int
	Description            string
	Canceled               bool
	Executed               bool
	ExecutableOnChain      bool
}

func newStoredProposal(p *Proposal) *storedProposal {
	return &storedProposal{
		Proposer:               p.Proposer,
		Accept:                 p.Accept,
		SnapshotRef:            p.SnapshotRef,
		SnapshotTimestamp:      p.SnapshotTimestamp,
		CreatedAt:              p.CreatedAt,
		VoteStart:              p.VoteStart,
		VoteEnd:                p.VoteEnd,
		ExecStart:              p.ExecStart,
		ExecEnd:                p.ExecEnd,
		ThresholdConditionBIPS: p.ThresholdConditionBIPS,
		MajorityConditionBIPS:  p.MajorityConditionBIPS,
		TotalWeight:            p.TotalWeight.ToBig(),
		Description:            p.Description,
		Canceled:               p.Canceled,
		Executed:               p.Executed,
		ExecutableOnChain:      p.ExecutableOnChain,
	}
}

func (s *storedProposal) proposal(id common.Hash) *Proposal {
	return &Proposal{
		ID:                     id,
		Proposer:               s.Proposer,
		Accept:                 s.Accept,
		SnapshotRef:            s.SnapshotRef,
		SnapshotTimestamp:      s.SnapshotTimestamp,
		CreatedAt:              s.CreatedAt,
		VoteStart:              s.VoteStart,
		VoteEnd:                s.VoteEnd,
		ExecStart:              s.ExecStart,
		ExecEnd:                s.ExecEnd,
		ThresholdConditionBIPS: s.ThresholdConditionBIPS,
		MajorityConditionBIPS:  s.MajorityConditionBIPS,
		TotalWeight:            toU256(s.TotalWeight),
		Description:            s.Description,
		Canceled:               s.Canceled,
		Executed:               s.Executed,
		ExecutableOnChain:      s.ExecutableOnChain,
	}
}

type storedVotes struct {
	For     *big.Int
	Against *big.Int
}

type storedMember struct {
	JoinedAt        uint64
	JoinEpoch       uint64
	JoinProposalID  common.Hash
	HasJoinProposal bool
}

type storedReceipt struct {
	Support uint8
	Weight  *big.Int
}

func toU256(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(b)
	return u
}
