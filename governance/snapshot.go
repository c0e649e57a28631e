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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var errNoHeaders = errors.New("no chain headers available")

// HeaderSource gives access to canonical chain headers. *ethclient.Client
// satisfies it.
type HeaderSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// HeaderSnapshots picks the vote power block of a proposal pseudo-randomly
// among the blocks mined within the lookback window, so that a proposer cannot
// know the snapshot in advance and prepare vote power for it.
type HeaderSnapshots struct {
	source HeaderSource
}

// NewHeaderSnapshots creates a header based snapshot provider.
func NewHeaderSnapshots(source HeaderSource) *HeaderSnapshots {
	return &HeaderSnapshots{source: source}
}

// Snapshot implements SnapshotProvider.
func (h *HeaderSnapshots) Snapshot(ctx context.Context, seed common.Hash, now, lookback uint64) (Snapshot, error) {
	head, err := h.source.HeaderByNumber(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	if head == nil {
		return Snapshot{}, errNoHeaders
	}
	var cutoff uint64
	if now > lookback {
		cutoff = now - lookback
	}
	headNum := head.Number.Uint64()

	// Find the first block not older than the cutoff.
	lo, hi := uint64(0), headNum
	for lo < hi {
		mid := lo + (hi-lo)/2
		header, err := h.source.HeaderByNumber(ctx, new(big.Int).SetUint64(mid))
		if err != nil {
			return Snapshot{}, fmt.Errorf("header %d: %w", mid, err)
		}
		if header.Time < cutoff {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	span := headNum - lo + 1
	number := lo + binary.BigEndian.Uint64(seed[common.HashLength-8:])%span
	if number == headNum {
		return Snapshot{Ref: number, Timestamp: head.Time}, nil
	}
	header, err := h.source.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return Snapshot{}, fmt.Errorf("header %d: %w", number, err)
	}
	return Snapshot{Ref: number, Timestamp: header.Time}, nil
}

// EpochSnapshots uses the reward epoch active at proposal creation as the
// snapshot, for variants whose eligibility is tracked per reward epoch.
type EpochSnapshots struct {
	clock EpochClock
}

// NewEpochSnapshots creates an epoch based snapshot provider.
func NewEpochSnapshots(clock EpochClock) *EpochSnapshots {
	return &EpochSnapshots{clock: clock}
}

// Snapshot implements SnapshotProvider.
func (e *EpochSnapshots) Snapshot(_ context.Context, _ common.Hash, now, _ uint64) (Snapshot, error) {
	epoch, start := e.clock.CurrentEpoch(now)
	return Snapshot{Ref: epoch, Timestamp: start}, nil
}

// StaticSnapshots uses the creation time itself as the snapshot reference.
// It suits offline tooling where vote power is not historical.
type StaticSnapshots struct{}

// Snapshot implements SnapshotProvider.
func (StaticSnapshots) Snapshot(_ context.Context, _ common.Hash, now, _ uint64) (Snapshot, error) {
	return Snapshot{Ref: now, Timestamp: now}, nil
}
