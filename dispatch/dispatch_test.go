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

package dispatch

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/flare-foundation/go-flare-governance/governance"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	_ governance.CallDispatcher = (*Recorder)(nil)
	_ governance.CallDispatcher = (*RPCDispatcher)(nil)
	_ governance.CallSimulator  = (*RPCDispatcher)(nil)
	_ Backend                   = (*fakeBackend)(nil)
)

var target = common.HexToAddress("0x00000000000000000000000000000000000000c1")

type revertError struct{ data string }

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorData() interface{} { return e.data }

// fakeBackend mines every sent transaction after pendingPolls receipt queries.
type fakeBackend struct {
	mu           sync.Mutex
	chainID      *big.Int
	callErr      error
	status       uint64
	pendingPolls int
	nonce        uint64
	sent         []*types.Transaction
	polls        int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{chainID: big.NewInt(14), status: types.ReceiptStatusSuccessful}
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }

func (b *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.callErr != nil {
		return nil, b.callErr
	}
	return msg.Data, nil
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return big.NewInt(25e9), nil }

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	b.nonce++
	return nil
}

func (b *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.polls++; b.polls <= b.pendingPolls {
		return nil, ethereum.NotFound
	}
	return &types.Receipt{TxHash: hash, Status: b.status, BlockNumber: big.NewInt(7)}, nil
}

func newTestDispatcher(t *testing.T, backend *fakeBackend) *RPCDispatcher {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	d, err := NewRPCDispatcher(context.Background(), backend, key, RPCConfig{
		GasLimit:       100_000,
		ReceiptTimeout: time.Second,
		PollInterval:   time.Millisecond,
	})
	require.NoError(t, err)
	return d
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	_, err := r.Dispatch(context.Background(), target, uint256.NewInt(5), []byte{0x01})
	require.NoError(t, err)
	_, err = r.Dispatch(context.Background(), target, nil, nil)
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, uint256.NewInt(5), calls[0].Value)
	assert.True(t, calls[1].Value.IsZero())
}

func TestRPCDispatch(t *testing.T) {
	backend := newFakeBackend()
	backend.pendingPolls = 2
	d := newTestDispatcher(t, backend)

	ret, err := d.Dispatch(context.Background(), target, uint256.NewInt(9), []byte{0xca, 0xfe})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xca, 0xfe}, ret)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, &target, tx.To())
	assert.Equal(t, big.NewInt(9), tx.Value())
	assert.Equal(t, uint64(100_000), tx.Gas())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(14)), tx)
	require.NoError(t, err)
	assert.Equal(t, d.From(), sender)

	// Nonces follow the backend.
	_, err = d.Dispatch(context.Background(), target, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), backend.sent[1].Nonce())
}

func TestRPCDispatchRevert(t *testing.T) {
	backend := newFakeBackend()
	backend.callErr = &revertError{data: hexutil.Encode([]byte{0x08, 0xc3, 0x79, 0xa0})}
	d := newTestDispatcher(t, backend)

	ret, err := d.Dispatch(context.Background(), target, nil, []byte{0x01})
	assert.Error(t, err)
	assert.Equal(t, []byte{0x08, 0xc3, 0x79, 0xa0}, ret)
	assert.Empty(t, backend.sent)

	// Errors without data yield no revert payload.
	backend.callErr = errors.New("connection refused")
	ret, err = d.Dispatch(context.Background(), target, nil, nil)
	assert.Error(t, err)
	assert.Nil(t, ret)
}

func TestRPCSimulate(t *testing.T) {
	backend := newFakeBackend()
	d := newTestDispatcher(t, backend)

	ret, err := d.Simulate(context.Background(), target, uint256.NewInt(1), []byte{0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, ret)
	assert.Empty(t, backend.sent)

	backend.callErr = &revertError{data: "0x01"}
	ret, err = d.Simulate(context.Background(), target, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, []byte{0x01}, ret)
	assert.Empty(t, backend.sent)
}

func TestRPCDispatchFailedReceipt(t *testing.T) {
	backend := newFakeBackend()
	backend.status = types.ReceiptStatusFailed
	d := newTestDispatcher(t, backend)

	_, err := d.Dispatch(context.Background(), target, nil, nil)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestRPCDispatchReceiptTimeout(t *testing.T) {
	backend := newFakeBackend()
	backend.pendingPolls = 1 << 30
	d := newTestDispatcher(t, backend)

	_, err := d.Dispatch(context.Background(), target, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
