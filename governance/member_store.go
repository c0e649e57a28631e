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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"
)

// memberStore persists management group membership next to the proposals of
// the same governor. Callers serialize access.
type memberStore struct {
	db ethdb.KeyValueStore
	ns []byte
}

func newMemberStore(db ethdb.KeyValueStore, governor common.Address) *memberStore {
	return &memberStore{db: db, ns: namespace(governor)}
}

func (s *memberStore) get(addr common.Address) (*Member, bool) {
	enc, err := s.db.Get(makeKey(s.ns, memberPrefix, addr.Bytes()))
	if err != nil || len(enc) == 0 {
		return nil, false
	}
	var stored storedMember
	if err := rlp.DecodeBytes(enc, &stored); err != nil {
		return nil, false
	}
	return &Member{
		Address:         addr,
		JoinedAt:        stored.JoinedAt,
		JoinEpoch:       stored.JoinEpoch,
		JoinProposalID:  stored.JoinProposalID,
		HasJoinProposal: stored.HasJoinProposal,
	}, true
}

func (s *memberStore) has(addr common.Address) bool {
	ok, _ := s.db.Has(makeKey(s.ns, memberPrefix, addr.Bytes()))
	return ok
}

func (s *memberStore) put(batch ethdb.Batch, m *Member) error {
	enc, err := rlp.EncodeToBytes(&storedMember{
		JoinedAt:        m.JoinedAt,
		JoinEpoch:       m.JoinEpoch,
		JoinProposalID:  m.JoinProposalID,
		HasJoinProposal: m.HasJoinProposal,
	})
	if err != nil {
		return err
	}
	return batch.Put(makeKey(s.ns, memberPrefix, m.Address.Bytes()), enc)
}

// remove deletes a member. With cooldown set, removedAt is kept as the start
// of the rejoin cooldown.
func (s *memberStore) remove(batch ethdb.Batch, addr common.Address, removedAt uint64, cooldown bool) error {
	if err := batch.Delete(makeKey(s.ns, memberPrefix, addr.Bytes())); err != nil {
		return err
	}
	if !cooldown {
		return nil
	}
	return batch.Put(makeKey(s.ns, removalPrefix, addr.Bytes()), encodeUint64(removedAt))
}

func (s *memberStore) lastRemoval(addr common.Address) (uint64, bool) {
	enc, err := s.db.Get(makeKey(s.ns, removalPrefix, addr.Bytes()))
	if err != nil || len(enc) == 0 {
		return 0, false
	}
	return decodeUint64(enc), true
}

func (s *memberStore) all() ([]common.Address, error) {
	prefix := makeKey(s.ns, memberPrefix)
	it := s.db.NewIterator(prefix, nil)
	defer it.Release()

	var members []common.Address
	for it.Next() {
		if len(it.Key()) != len(prefix)+common.AddressLength {
			continue
		}
		members = append(members, common.BytesToAddress(it.Key()[len(prefix):]))
	}
	return members, it.Error()
}

func (s *memberStore) count() int {
	members, _ := s.all()
	return len(members)
}
