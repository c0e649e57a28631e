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

// Package dispatch performs the on-chain calls of executed proposals.
package dispatch

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Call is a dispatched proposal call.
type Call struct {
	Target common.Address
	Value  *uint256.Int
	Data   []byte
}

// Recorder is a dispatcher that only records calls. It backs dry runs and
// deployments without a node connection.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Dispatch records the call and succeeds with empty return data.
func (r *Recorder) Dispatch(_ context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	call := Call{Target: target, Value: new(uint256.Int), Data: common.CopyBytes(data)}
	if value != nil {
		call.Value.Set(value)
	}
	r.calls = append(r.calls, call)
	log.Info("Recorded proposal call", "target", target, "value", call.Value, "data", len(data))
	return nil, nil
}

// Calls returns the recorded calls in dispatch order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Call(nil), r.calls...)
}
