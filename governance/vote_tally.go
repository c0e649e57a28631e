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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// VoteTally keeps the aggregated votes of proposals and one receipt per
// (proposal, voter) pair.
type VoteTally struct {
	db ethdb.KeyValueStore
	ns []byte
	mu sync.Mutex
}

// NewVoteTally creates a tally for the given governor.
func NewVoteTally(db ethdb.KeyValueStore, governor common.Address) *VoteTally {
	return &VoteTally{
		db: db,
		ns: namespace(governor),
	}
}

// RecordVote counts weight for the given side unless voter already voted.
// The has-voted check, the receipt and the new totals are applied together.
func (t *VoteTally) RecordVote(id common.Hash, voter common.Address, support Support, weight *uint256.Int) (*ProposalVotes, error) {
	if support != SupportAgainst && support != SupportFor {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSupport, support)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.HasVoted(id, voter) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyVoted, voter.Hex())
	}
	votes, err := t.VotesOf(id)
	if err != nil {
		return nil, err
	}
	if weight == nil {
		weight = new(uint256.Int)
	}
	cast := votes.Cast()
	if _, overflow := cast.AddOverflow(cast, weight); overflow {
		return nil, fmt.Errorf("%w: %s", ErrWeightOverflow, voter.Hex())
	}
	if support == SupportFor {
		votes.For.Add(votes.For, weight)
	} else {
		votes.Against.Add(votes.Against, weight)
	}

	receipt, err := rlp.EncodeToBytes(&storedReceipt{Support: uint8(support), Weight: weight.ToBig()})
	if err != nil {
		return nil, err
	}
	totals, err := rlp.EncodeToBytes(&storedVotes{For: votes.For.ToBig(), Against: votes.Against.ToBig()})
	if err != nil {
		return nil, err
	}
	batch := t.db.NewBatch()
	if err := batch.Put(makeKey(t.ns, receiptPrefix, id.Bytes(), voter.Bytes()), receipt); err != nil {
		return nil, err
	}
	if err := batch.Put(makeKey(t.ns, votesPrefix, id.Bytes()), totals); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}
	return votes, nil
}

// VotesOf returns the accumulated votes of a proposal. Proposals without
// votes report zero totals.
func (t *VoteTally) VotesOf(id common.Hash) (*ProposalVotes, error) {
	votes := &ProposalVotes{For: new(uint256.Int), Against: new(uint256.Int)}
	enc, err := t.db.Get(makeKey(t.ns, votesPrefix, id.Bytes()))
	if err != nil || len(enc) == 0 {
		return votes, nil
	}
	var stored storedVotes
	if err := rlp.DecodeBytes(enc, &stored); err != nil {
		return nil, err
	}
	votes.For = toU256(stored.For)
	votes.Against = toU256(stored.Against)
	return votes, nil
}

// HasVoted reports whether voter already voted on the proposal.
func (t *VoteTally) HasVoted(id common.Hash, voter common.Address) bool {
	ok, _ := t.db.Has(makeKey(t.ns, receiptPrefix, id.Bytes(), voter.Bytes()))
	return ok
}

// Receipt returns the ballot voter cast on the proposal.
func (t *VoteTally) Receipt(id common.Hash, voter common.Address) (*Receipt, bool) {
	enc, err := t.db.Get(makeKey(t.ns, receiptPrefix, id.Bytes(), voter.Bytes()))
	if err != nil || len(enc) == 0 {
		return nil, false
	}
	var stored storedReceipt
	if err := rlp.DecodeBytes(enc, &stored); err != nil {
		return nil, false
	}
	return &Receipt{Support: Support(stored.Support), Weight: toU256(stored.Weight)}, true
}
