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
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// Storage key prefixes
	rewardPrefix       = []byte("incR") // rewardPrefix + beneficiary + epoch -> rlp(*big.Int)
	finalizedPrefix    = []byte("incF") // finalizedPrefix + epoch -> {1}
	lastFinalizedKey   = []byte("incL") // lastFinalizedKey -> latest finalized epoch + 1
	chilledUntilPrefix = []byte("incC") // chilledUntilPrefix + address -> epoch
	chillHistoryPrefix = []byte("incH") // chillHistoryPrefix + address -> rlp([]chillRecordData)
)

func rewardKey(beneficiary common.Address, epoch uint64) []byte {
	return append(append(append([]byte{}, rewardPrefix...), beneficiary.Bytes()...), uint64ToBytes(epoch)...)
}

func finalizedKey(epoch uint64) []byte {
	return append(append([]byte{}, finalizedPrefix...), uint64ToBytes(epoch)...)
}

func chilledUntilKey(addr common.Address) []byte {
	return append(append([]byte{}, chilledUntilPrefix...), addr.Bytes()...)
}

func chillHistoryKey(addr common.Address) []byte {
	return append(append([]byte{}, chillHistoryPrefix...), addr.Bytes()...)
}

func uint64ToBytes(val uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, val)
	return buf
}

func bytesToUint64(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Storage data structures for RLP encoding

type rewardData struct {
	Amount *big.Int
}

type chillRecordData struct {
	Epoch     uint64
	Until     uint64
	Reason    string
	Timestamp uint64
}
