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
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
)

// ChillRecord is a single chill decision.
type ChillRecord struct {
	Address   common.Address
	Epoch     uint64 // reward epoch in which the chill was issued
	Until     uint64 // first reward epoch no longer chilled
	Reason    string
	Timestamp uint64
}

// ChillRegistry keeps the chill status of addresses. A chilled address is
// barred from governance roles until the given reward epoch.
type ChillRegistry struct {
	db ethdb.KeyValueStore
	mu sync.Mutex
}

// NewChillRegistry creates a registry persisted in db.
func NewChillRegistry(db ethdb.KeyValueStore) *ChillRegistry {
	return &ChillRegistry{db: db}
}

// Chill bars addr until the given reward epoch. A later chill replaces an
// earlier one only if it lasts longer.
func (cr *ChillRegistry) Chill(record *ChillRecord) error {
	if record.Until <= record.Epoch {
		return fmt.Errorf("%w: until epoch %d not after epoch %d", ErrInvalidChill, record.Until, record.Epoch)
	}
	cr.mu.Lock()
	defer cr.mu.Unlock()

	history, err := cr.history(record.Address)
	if err != nil {
		return err
	}
	history = append(history, chillRecordData{
		Epoch:     record.Epoch,
		Until:     record.Until,
		Reason:    record.Reason,
		Timestamp: record.Timestamp,
	})
	enc, err := rlp.EncodeToBytes(history)
	if err != nil {
		return err
	}
	batch := cr.db.NewBatch()
	if err := batch.Put(chillHistoryKey(record.Address), enc); err != nil {
		return err
	}
	if record.Until > cr.chilledUntil(record.Address) {
		if err := batch.Put(chilledUntilKey(record.Address), uint64ToBytes(record.Until)); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Info("Address chilled", "addr", record.Address, "until", record.Until, "reason", record.Reason)
	return nil
}

// ChilledUntil returns the first reward epoch in which addr is no longer
// chilled, or zero if it was never chilled.
func (cr *ChillRegistry) ChilledUntil(addr common.Address) uint64 {
	return cr.chilledUntil(addr)
}

// IsChilled reports whether addr is chilled in the reward epoch.
func (cr *ChillRegistry) IsChilled(addr common.Address, epoch uint64) bool {
	return cr.chilledUntil(addr) > epoch
}

// GetChillHistory returns all chill decisions for addr.
func (cr *ChillRegistry) GetChillHistory(addr common.Address) ([]*ChillRecord, error) {
	history, err := cr.history(addr)
	if err != nil {
		return nil, err
	}
	records := make([]*ChillRecord, 0, len(history))
	for _, data := range history {
		records = append(records, &ChillRecord{
			Address:   addr,
			Epoch:     data.Epoch,
			Until:     data.Until,
			Reason:    data.Reason,
			Timestamp: data.Timestamp,
		})
	}
	return records, nil
}

func (cr *ChillRegistry) chilledUntil(addr common.Address) uint64 {
	enc, err := cr.db.Get(chilledUntilKey(addr))
	if err != nil {
		return 0
	}
	return bytesToUint64(enc)
}

func (cr *ChillRegistry) history(addr common.Address) ([]chillRecordData, error) {
	enc, err := cr.db.Get(chillHistoryKey(addr))
	if err != nil || len(enc) == 0 {
		return nil, nil
	}
	var history []chillRecordData
	if err := rlp.DecodeBytes(enc, &history); err != nil {
		return nil, err
	}
	return history, nil
}
