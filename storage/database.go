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

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gofrs/flock"
)

const (
	lockFileName = "LOCK.govctl"
	dbDirName    = "chaindata"
	dbNamespace  = "govctl/db/"
)

var ErrDataDirLocked = errors.New("data directory used by another process")

// Database is an opened key-value database holding governance state. On
// disk databases hold an exclusive lock on their data directory until closed.
type Database struct {
	ethdb.Database
	lock *flock.Flock
}

// Open opens the database described by config.
func Open(config *Config) (*Database, error) {
	switch config.Engine {
	case EngineMemory:
		return &Database{Database: rawdb.NewMemoryDatabase()}, nil
	case EngineLevelDB, "":
		return openLevelDB(config)
	default:
		return nil, fmt.Errorf("unknown database engine %q", config.Engine)
	}
}

func openLevelDB(config *Config) (*Database, error) {
	if config.DataDir == "" {
		return nil, errors.New("data directory required")
	}
	if err := os.MkdirAll(config.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	lock := flock.New(filepath.Join(config.DataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock data directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, config.DataDir)
	}
	path := filepath.Join(config.DataDir, dbDirName)
	kv, err := leveldb.New(path, config.Cache, config.Handles, dbNamespace, config.ReadOnly)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	log.Debug("Opened governance database", "path", path, "cache", config.Cache, "handles", config.Handles, "readonly", config.ReadOnly)
	return &Database{Database: rawdb.NewDatabase(kv), lock: lock}, nil
}

// Close closes the database and releases the data directory.
func (db *Database) Close() error {
	err := db.Database.Close()
	if db.lock != nil {
		if uerr := db.lock.Unlock(); uerr != nil && err == nil {
			err = uerr
		}
	}
	return err
}
