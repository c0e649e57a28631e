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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"
)

// ErrTransactionFailed is returned when a sent call is mined with a failed status.
var ErrTransactionFailed = errors.New("transaction failed")

// Backend is the part of a node API needed to send calls. *ethclient.Client
// satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// RPCConfig configures an RPCDispatcher.
type RPCConfig struct {
	GasLimit       uint64
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

// RPCDispatcher sends every proposal call as a transaction signed by the
// governor account. Each call is simulated first so that reverts surface
// with their revert data before anything is sent.
type RPCDispatcher struct {
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	config  RPCConfig

	mu sync.Mutex // serializes nonce use
}

// Dial connects to the node at url and creates a dispatcher sending from the
// account of the hex encoded key.
func Dial(ctx context.Context, url, hexkey string, config RPCConfig) (*RPCDispatcher, *ethclient.Client, error) {
	key, err := crypto.HexToECDSA(hexkey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid dispatch key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to %s: %w", url, err)
	}
	d, err := NewRPCDispatcher(ctx, client, key, config)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return d, client, nil
}

// NewRPCDispatcher creates a dispatcher on top of backend.
func NewRPCDispatcher(ctx context.Context, backend Backend, key *ecdsa.PrivateKey, config RPCConfig) (*RPCDispatcher, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if config.GasLimit == 0 {
		return nil, errors.New("gas limit must be positive")
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}
	return &RPCDispatcher{
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(chainID),
		config:  config,
	}, nil
}

// From returns the sending account.
func (d *RPCDispatcher) From() common.Address {
	return d.from
}

// Simulate implements governance.CallSimulator by running the call against
// the latest state without sending a transaction.
func (d *RPCDispatcher) Simulate(ctx context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	return d.simulate(ctx, target, toWei(value), data)
}

func (d *RPCDispatcher) simulate(ctx context.Context, target common.Address, wei *big.Int, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{From: d.from, To: &target, Gas: d.config.GasLimit, Value: wei, Data: data}
	ret, err := d.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return revertData(err), err
	}
	return ret, nil
}

// Dispatch implements governance.CallDispatcher. It returns once the
// transaction is mined.
func (d *RPCDispatcher) Dispatch(ctx context.Context, target common.Address, value *uint256.Int, data []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wei := toWei(value)
	ret, err := d.simulate(ctx, target, wei, data)
	if err != nil {
		return ret, err
	}

	nonce, err := d.backend.PendingNonceAt(ctx, d.from)
	if err != nil {
		return nil, fmt.Errorf("failed to query nonce: %w", err)
	}
	gasPrice, err := d.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query gas price: %w", err)
	}
	tx, err := types.SignNewTx(d.key, d.signer, &types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      d.config.GasLimit,
		To:       &target,
		Value:    wei,
		Data:     data,
	})
	if err != nil {
		return nil, err
	}
	if err := d.backend.SendTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	log.Info("Sent proposal call", "tx", tx.Hash(), "target", target, "nonce", nonce)

	receipt, err := d.waitMined(ctx, tx.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s in block %d", ErrTransactionFailed, tx.Hash().Hex(), receipt.BlockNumber)
	}
	log.Info("Proposal call mined", "tx", tx.Hash(), "block", receipt.BlockNumber, "gas", receipt.GasUsed)
	return ret, nil
}

func (d *RPCDispatcher) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if d.config.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ReceiptTimeout)
		defer cancel()
	}
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := d.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			log.Trace("Failed to retrieve receipt", "tx", hash, "err", err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// revertData extracts the revert payload a node attaches to a failed call.
func toWei(value *uint256.Int) *big.Int {
	if value == nil {
		return new(big.Int)
	}
	return value.ToBig()
}

func revertData(err error) []byte {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}
	hex, ok := dataErr.ErrorData().(string)
	if !ok {
		return nil
	}
	data, err := hexutil.Decode(hex)
	if err != nil {
		return nil
	}
	return data
}
