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
	"math"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// ProposalRequest carries everything needed to create a proposal record.
type ProposalRequest struct {
	Proposer    common.Address
	Content     *Content
	Settings    Settings
	Snapshot    Snapshot
	TotalWeight *uint256.Int
	Now         uint64
	MaxDuration uint64
}

// ProposalStore persists proposals and the ordered list of their ids. It also
// owns the execution cursor that keeps execution windows of one governor from
// overlapping.
type ProposalStore struct {
	db       ethdb.KeyValueStore
	chainID  *big.Int
	governor common.Address
	ns       []byte

	mu sync.Mutex // guards record creation, flag updates and the cursor
}

// NewProposalStore creates a store for the governor identified by chainID and address.
func NewProposalStore(db ethdb.KeyValueStore, chainID *big.Int, governor common.Address) *ProposalStore {
	return &ProposalStore{
		db:       db,
		chainID:  new(big.Int).Set(chainID),
		governor: governor,
		ns:       namespace(governor),
	}
}

// ComputeID returns the identifier the given content would get in this store.
func (s *ProposalStore) ComputeID(content *Content) (common.Hash, error) {
	return ComputeProposalID(s.chainID, s.governor, content)
}

// Create validates the timing of a new proposal, assigns its voting and
// execution windows and persists it atomically.
func (s *ProposalStore) Create(req *ProposalRequest) (*Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ComputeID(req.Content)
	if err != nil {
		return nil, err
	}
	if s.exists(id) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, id.Hex())
	}

	voteStart := max(req.Now, req.Settings.VotingStartTs)
	if voteStart == 0 {
		return nil, fmt.Errorf("%w: zero voting start", ErrInvalidSettings)
	}
	voteEnd, ok := addUint64(voteStart, req.Settings.VotingPeriodSeconds)
	if !ok {
		return nil, fmt.Errorf("%w: voting end overflows", ErrInvalidSettings)
	}
	if voteEnd < req.Snapshot.Timestamp || voteEnd-req.Snapshot.Timestamp >= req.MaxDuration {
		return nil, fmt.Errorf("%w: voting ends %d, snapshot taken at %d", ErrDurationTooLong, voteEnd, req.Snapshot.Timestamp)
	}

	p := &Proposal{
		ID:                     id,
		Proposer:               req.Proposer,
		Accept:                 req.Settings.Accept,
		SnapshotRef:            req.Snapshot.Ref,
		SnapshotTimestamp:      req.Snapshot.Timestamp,
		CreatedAt:              req.Now,
		VoteStart:              voteStart,
		VoteEnd:                voteEnd,
		ThresholdConditionBIPS: req.Settings.ThresholdConditionBIPS,
		MajorityConditionBIPS:  req.Settings.MajorityConditionBIPS,
		TotalWeight:            new(uint256.Int).Set(req.TotalWeight),
		Description:            req.Content.Description,
	}

	batch := s.db.NewBatch()
	if req.Content.Executable() {
		earliest, ok := addUint64(voteEnd, req.Settings.ExecutionDelaySeconds)
		if !ok {
			return nil, fmt.Errorf("%w: execution start overflows", ErrInvalidSettings)
		}
		p.ExecutableOnChain = true
		p.ExecStart = max(earliest, s.nextExecutionStart())
		if p.ExecEnd, ok = addUint64(p.ExecStart, req.Settings.ExecutionPeriodSeconds); !ok {
			return nil, fmt.Errorf("%w: execution end overflows", ErrInvalidSettings)
		}
		if err := batch.Put(makeKey(s.ns, execCursorKey), encodeUint64(p.ExecEnd)); err != nil {
			return nil, err
		}
	}

	enc, err := rlp.EncodeToBytes(newStoredProposal(p))
	if err != nil {
		return nil, err
	}
	count := s.count()
	if err := batch.Put(makeKey(s.ns, proposalPrefix, id.Bytes()), enc); err != nil {
		return nil, err
	}
	if err := batch.Put(makeKey(s.ns, proposalIndexPrefix, encodeUint64(count)), id.Bytes()); err != nil {
		return nil, err
	}
	if err := batch.Put(makeKey(s.ns, proposalCountKey), encodeUint64(count+1)); err != nil {
		return nil, err
	}
	if err := batch.Write(); err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads a proposal.
func (s *ProposalStore) Get(id common.Hash) (*Proposal, error) {
	enc, err := s.db.Get(makeKey(s.ns, proposalPrefix, id.Bytes()))
	if err != nil || len(enc) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProposal, id.Hex())
	}
	var stored storedProposal
	if err := rlp.DecodeBytes(enc, &stored); err != nil {
		return nil, err
	}
	return stored.proposal(id), nil
}

// MarkCanceled sets the canceled flag of a stored proposal.
func (s *ProposalStore) MarkCanceled(id common.Hash) error {
	return s.update(id, func(p *Proposal) { p.Canceled = true })
}

// Dispatched returns how many calls of a proposal were already performed
// by earlier, interrupted executions.
func (s *ProposalStore) Dispatched(id common.Hash) int {
	enc, err := s.db.Get(makeKey(s.ns, dispatchedPrefix, id.Bytes()))
	if err != nil {
		return 0
	}
	return int(decodeUint64(enc))
}

// SetDispatched records that the first n calls of a proposal were performed.
func (s *ProposalStore) SetDispatched(id common.Hash, n int) error {
	return s.db.Put(makeKey(s.ns, dispatchedPrefix, id.Bytes()), encodeUint64(uint64(n)))
}

// MarkExecuted sets the executed flag of a stored proposal and drops its
// dispatch progress.
func (s *ProposalStore) MarkExecuted(id common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(id)
	if err != nil {
		return err
	}
	p.Executed = true
	enc, err := rlp.EncodeToBytes(newStoredProposal(p))
	if err != nil {
		return err
	}
	batch := s.db.NewBatch()
	if err := batch.Put(makeKey(s.ns, proposalPrefix, id.Bytes()), enc); err != nil {
		return err
	}
	if err := batch.Delete(makeKey(s.ns, dispatchedPrefix, id.Bytes())); err != nil {
		return err
	}
	return batch.Write()
}

func (s *ProposalStore) update(id common.Hash, fn func(p *Proposal)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(id)
	if err != nil {
		return err
	}
	fn(p)
	enc, err := rlp.EncodeToBytes(newStoredProposal(p))
	if err != nil {
		return err
	}
	return s.db.Put(makeKey(s.ns, proposalPrefix, id.Bytes()), enc)
}

// Count returns the number of stored proposals.
func (s *ProposalStore) Count() uint64 {
	return s.count()
}

// IDAt returns the id of the i-th created proposal.
func (s *ProposalStore) IDAt(i uint64) (common.Hash, error) {
	enc, err := s.db.Get(makeKey(s.ns, proposalIndexPrefix, encodeUint64(i)))
	if err != nil || len(enc) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: index %d", ErrUnknownProposal, i)
	}
	return common.BytesToHash(enc), nil
}

// IDs returns all proposal ids in creation order.
func (s *ProposalStore) IDs() ([]common.Hash, error) {
	n := s.count()
	ids := make([]common.Hash, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := s.IDAt(i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Latest returns the id of the most recently created proposal.
func (s *ProposalStore) Latest() (common.Hash, bool) {
	n := s.count()
	if n == 0 {
		return common.Hash{}, false
	}
	id, err := s.IDAt(n - 1)
	if err != nil {
		return common.Hash{}, false
	}
	return id, true
}

// NextExecutionStart returns the earliest time the next execution window may open.
func (s *ProposalStore) NextExecutionStart() uint64 {
	return s.nextExecutionStart()
}

func (s *ProposalStore) exists(id common.Hash) bool {
	ok, _ := s.db.Has(makeKey(s.ns, proposalPrefix, id.Bytes()))
	return ok
}

func (s *ProposalStore) count() uint64 {
	enc, err := s.db.Get(makeKey(s.ns, proposalCountKey))
	if err != nil {
		return 0
	}
	return decodeUint64(enc)
}

func (s *ProposalStore) nextExecutionStart() uint64 {
	enc, err := s.db.Get(makeKey(s.ns, execCursorKey))
	if err != nil {
		return 0
	}
	return decodeUint64(enc)
}

func addUint64(a, b uint64) (uint64, bool) {
	if b > math.MaxUint64-a {
		return 0, false
	}
	return a + b, true
}
