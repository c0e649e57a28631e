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
	"github.com/holiman/uint256"
)

// RewardLedger records the rewards earned by beneficiaries per reward epoch.
// Rewards of an epoch can be added until the epoch is finalized; afterwards
// the epoch is read-only and counts as initialized for every beneficiary.
type RewardLedger struct {
	db ethdb.KeyValueStore
	mu sync.Mutex
}

// NewRewardLedger creates a ledger persisted in db.
func NewRewardLedger(db ethdb.KeyValueStore) *RewardLedger {
	return &RewardLedger{db: db}
}

// AddReward adds amount to the reward of beneficiary in the epoch.
func (rl *RewardLedger) AddReward(beneficiary common.Address, epoch uint64, amount *uint256.Int) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.isFinalized(epoch) {
		return fmt.Errorf("%w: %d", ErrEpochFinalized, epoch)
	}
	total := rl.rewardOf(beneficiary, epoch)
	if _, overflow := total.AddOverflow(total, amount); overflow {
		return fmt.Errorf("reward of %s in epoch %d overflows", beneficiary.Hex(), epoch)
	}
	enc, err := rlp.EncodeToBytes(&rewardData{Amount: total.ToBig()})
	if err != nil {
		return err
	}
	return rl.db.Put(rewardKey(beneficiary, epoch), enc)
}

// Finalize closes the epoch for further rewards.
func (rl *RewardLedger) Finalize(epoch uint64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.isFinalized(epoch) {
		return fmt.Errorf("%w: %d", ErrEpochFinalized, epoch)
	}
	batch := rl.db.NewBatch()
	if err := batch.Put(finalizedKey(epoch), []byte{1}); err != nil {
		return err
	}
	if next, ok := rl.nextUnfinalized(); !ok || epoch >= next {
		if err := batch.Put(lastFinalizedKey, uint64ToBytes(epoch+1)); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	log.Info("Reward epoch finalized", "epoch", epoch)
	return nil
}

// RewardOf returns the reward of beneficiary in the epoch.
func (rl *RewardLedger) RewardOf(beneficiary common.Address, epoch uint64) *uint256.Int {
	return rl.rewardOf(beneficiary, epoch)
}

// IsFinalized reports whether the epoch is closed.
func (rl *RewardLedger) IsFinalized(epoch uint64) bool {
	return rl.isFinalized(epoch)
}

// LastFinalized returns the highest finalized epoch.
func (rl *RewardLedger) LastFinalized() (uint64, bool) {
	next, ok := rl.nextUnfinalized()
	if !ok {
		return 0, false
	}
	return next - 1, true
}

func (rl *RewardLedger) isFinalized(epoch uint64) bool {
	ok, _ := rl.db.Has(finalizedKey(epoch))
	return ok
}

func (rl *RewardLedger) nextUnfinalized() (uint64, bool) {
	enc, err := rl.db.Get(lastFinalizedKey)
	if err != nil || len(enc) == 0 {
		return 0, false
	}
	return bytesToUint64(enc), true
}

func (rl *RewardLedger) rewardOf(beneficiary common.Address, epoch uint64) *uint256.Int {
	enc, err := rl.db.Get(rewardKey(beneficiary, epoch))
	if err != nil || len(enc) == 0 {
		return new(uint256.Int)
	}
	var data rewardData
	if err := rlp.DecodeBytes(enc, &data); err != nil || data.Amount == nil {
		return new(uint256.Int)
	}
	amount, _ := uint256.FromBig(data.Amount)
	return amount
}
