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

package incentive

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
)

var (
	stateRewardPrefix    = []byte("reward")
	stateFinalizedPrefix = []byte("finalized")
	stateChilledPrefix   = []byte("chilledUntil")

	stateRootKey = []byte("incS") // stateRootKey -> root of the reward contract state
)

// StateStorage keeps reward data in the storage slots of the reward
// contract, so that the management group can be driven by on-chain state.
type StateStorage struct {
	contractAddr common.Address
}

// NewStateStorage creates a state storage for the reward contract.
func NewStateStorage(contractAddr common.Address) *StateStorage {
	return &StateStorage{contractAddr: contractAddr}
}

// SaveReward stores the reward of beneficiary in the epoch.
func (ss *StateStorage) SaveReward(stateDB *state.StateDB, beneficiary common.Address, epoch uint64, amount *uint256.Int) {
	key := ss.makeKey(stateRewardPrefix, beneficiary.Bytes(), uint64ToBytes(epoch))
	stateDB.SetState(ss.contractAddr, key, common.Hash(amount.Bytes32()))
}

// LoadReward loads the reward of beneficiary in the epoch.
func (ss *StateStorage) LoadReward(stateDB *state.StateDB, beneficiary common.Address, epoch uint64) *uint256.Int {
	key := ss.makeKey(stateRewardPrefix, beneficiary.Bytes(), uint64ToBytes(epoch))
	value := stateDB.GetState(ss.contractAddr, key)
	return new(uint256.Int).SetBytes32(value[:])
}

// SaveFinalized marks the epoch as finalized.
func (ss *StateStorage) SaveFinalized(stateDB *state.StateDB, epoch uint64) {
	key := ss.makeKey(stateFinalizedPrefix, uint64ToBytes(epoch))
	stateDB.SetState(ss.contractAddr, key, common.BigToHash(common.Big1))
}

// IsFinalized reports whether the epoch is finalized.
func (ss *StateStorage) IsFinalized(stateDB *state.StateDB, epoch uint64) bool {
	key := ss.makeKey(stateFinalizedPrefix, uint64ToBytes(epoch))
	return stateDB.GetState(ss.contractAddr, key) != (common.Hash{})
}

// SaveChilledUntil stores the chill status of addr.
func (ss *StateStorage) SaveChilledUntil(stateDB *state.StateDB, addr common.Address, epoch uint64) {
	key := ss.makeKey(stateChilledPrefix, addr.Bytes())
	stateDB.SetState(ss.contractAddr, key, common.BytesToHash(uint64ToBytes(epoch)))
}

// LoadChilledUntil loads the chill status of addr.
func (ss *StateStorage) LoadChilledUntil(stateDB *state.StateDB, addr common.Address) uint64 {
	key := ss.makeKey(stateChilledPrefix, addr.Bytes())
	value := stateDB.GetState(ss.contractAddr, key)
	return bytesToUint64(value[common.HashLength-8:])
}

func (ss *StateStorage) makeKey(prefix []byte, parts ...[]byte) common.Hash {
	data := append([][]byte{prefix}, parts...)
	return crypto.Keccak256Hash(data...)
}

// StateSignal is a reward signal read from a state of the reward contract.
type StateSignal struct {
	*EpochClock
	storage *StateStorage
	state   func() *state.StateDB
}

// NewStateSignal creates a reward signal over stateDB.
func NewStateSignal(clock *EpochClock, storage *StateStorage, stateDB *state.StateDB) *StateSignal {
	return &StateSignal{EpochClock: clock, storage: storage, state: func() *state.StateDB { return stateDB }}
}

func (s *StateSignal) IsInitialized(_ common.Address, epoch uint64) bool {
	return s.storage.IsFinalized(s.state(), epoch)
}

func (s *StateSignal) RewardIsZero(beneficiary common.Address, epoch uint64) bool {
	return s.storage.LoadReward(s.state(), beneficiary, epoch).IsZero()
}

func (s *StateSignal) ChilledUntil(addr common.Address) uint64 {
	return s.storage.LoadChilledUntil(s.state(), addr)
}

// StateMirror maintains the reward contract state in a trie stored next to
// the governance data. Every update is committed to disk and the new root
// recorded, so a reopened mirror continues from the last update.
type StateMirror struct {
	storage *StateStorage
	diskdb  ethdb.Database
	trieDB  *triedb.Database
	sdb     state.Database

	mu      sync.Mutex
	stateDB *state.StateDB
	root    common.Hash
}

// OpenStateMirror opens the reward state of contract persisted in db.
func OpenStateMirror(db ethdb.Database, contract common.Address) (*StateMirror, error) {
	trieDB := triedb.NewDatabase(db, nil)
	m := &StateMirror{
		storage: NewStateStorage(contract),
		diskdb:  db,
		trieDB:  trieDB,
		sdb:     state.NewDatabase(trieDB, nil),
		root:    types.EmptyRootHash,
	}
	if enc, err := db.Get(stateRootKey); err == nil && len(enc) == common.HashLength {
		m.root = common.BytesToHash(enc)
	}
	stateDB, err := state.New(m.root, m.sdb)
	if err != nil {
		return nil, fmt.Errorf("failed to open reward state %s: %w", m.root.Hex(), err)
	}
	m.stateDB = stateDB
	return m, nil
}

// Root returns the root of the last committed reward state.
func (m *StateMirror) Root() common.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.root
}

// SetReward records the total reward of beneficiary in the epoch.
func (m *StateMirror) SetReward(beneficiary common.Address, epoch uint64, amount *uint256.Int) error {
	return m.update(func(stateDB *state.StateDB) {
		m.storage.SaveReward(stateDB, beneficiary, epoch, amount)
	})
}

// SetFinalized marks the epoch as finalized.
func (m *StateMirror) SetFinalized(epoch uint64) error {
	return m.update(func(stateDB *state.StateDB) {
		m.storage.SaveFinalized(stateDB, epoch)
	})
}

// SetChilledUntil records the chill status of addr.
func (m *StateMirror) SetChilledUntil(addr common.Address, epoch uint64) error {
	return m.update(func(stateDB *state.StateDB) {
		m.storage.SaveChilledUntil(stateDB, addr, epoch)
	})
}

// Signal returns a reward signal that always reads the latest committed state.
func (m *StateMirror) Signal(clock *EpochClock) *StateSignal {
	return &StateSignal{EpochClock: clock, storage: m.storage, state: m.current}
}

func (m *StateMirror) current() *state.StateDB {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stateDB
}

func (m *StateMirror) update(fn func(stateDB *state.StateDB)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(m.stateDB)
	root, err := m.stateDB.Commit(0, false, false)
	if err != nil {
		return err
	}
	if err := m.trieDB.Commit(root, false); err != nil {
		return err
	}
	if err := m.diskdb.Put(stateRootKey, root.Bytes()); err != nil {
		return err
	}
	// A committed state cannot be modified further.
	stateDB, err := state.New(root, m.sdb)
	if err != nil {
		return err
	}
	m.stateDB, m.root = stateDB, root
	log.Debug("Committed reward state", "root", root)
	return nil
}
