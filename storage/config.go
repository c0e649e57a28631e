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

// Supported database engines
const (
	EngineMemory  = "memory"
	EngineLevelDB = "leveldb"
)

// Config defines configuration for the storage module
type Config struct {
	Engine   string // EngineMemory or EngineLevelDB
	DataDir  string // data directory, required for leveldb
	Cache    int    // leveldb cache size in megabytes
	Handles  int    // leveldb open file handles
	ReadOnly bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine:  EngineLevelDB,
		DataDir: "govdata",
		Cache:   16,
		Handles: 16,
	}
}
