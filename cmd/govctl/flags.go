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

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/flare-foundation/go-flare-governance/governance"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	descriptionFlag = &cli.StringFlag{
		Name:     "description",
		Usage:    "Proposal description",
		Required: true,
	}
	targetFlag = &cli.StringSliceFlag{
		Name:  "target",
		Usage: "Target address of a call (repeatable)",
	}
	valueFlag = &cli.StringSliceFlag{
		Name:  "value",
		Usage: "Wei value of a call, one per target (defaults to zero)",
	}
	calldataFlag = &cli.StringSliceFlag{
		Name:  "calldata",
		Usage: "Hex encoded calldata of a call, one per target (defaults to empty)",
	}
	contentFlags = []cli.Flag{descriptionFlag, targetFlag, valueFlag, calldataFlag}

	rejectFlag = &cli.BoolFlag{
		Name:  "reject",
		Usage: "Create a rejection based proposal",
	}
	votingStartFlag = &cli.Uint64Flag{
		Name:  "voting-start",
		Usage: "Earliest voting start (unix time)",
	}
	votingPeriodFlag = &cli.Uint64Flag{
		Name:  "voting-period",
		Usage: "Voting period in seconds",
	}
	thresholdFlag = &cli.Uint64Flag{
		Name:  "threshold",
		Usage: "Threshold condition in basis points",
	}
	majorityFlag = &cli.Uint64Flag{
		Name:  "majority",
		Usage: "Majority condition in basis points",
	}
	settingsFlags = []cli.Flag{rejectFlag, votingStartFlag, votingPeriodFlag, thresholdFlag, majorityFlag}
)

// parseContent builds proposal content from the content flags.
func parseContent(ctx *cli.Context) (*governance.Content, error) {
	var (
		targets   = ctx.StringSlice(targetFlag.Name)
		values    = ctx.StringSlice(valueFlag.Name)
		calldatas = ctx.StringSlice(calldataFlag.Name)
	)
	if len(values) > 0 && len(values) != len(targets) {
		return nil, fmt.Errorf("%d values for %d targets", len(values), len(targets))
	}
	if len(calldatas) > 0 && len(calldatas) != len(targets) {
		return nil, fmt.Errorf("%d calldatas for %d targets", len(calldatas), len(targets))
	}
	content := &governance.Content{Description: ctx.String(descriptionFlag.Name)}
	for i, t := range targets {
		if !common.IsHexAddress(t) {
			return nil, fmt.Errorf("invalid target %q", t)
		}
		value := new(uint256.Int)
		if len(values) > 0 {
			v, err := uint256.FromDecimal(values[i])
			if err != nil {
				return nil, fmt.Errorf("invalid value %q: %w", values[i], err)
			}
			value = v
		}
		var data []byte
		if len(calldatas) > 0 {
			d, err := hexutil.Decode(calldatas[i])
			if err != nil {
				return nil, fmt.Errorf("invalid calldata %q: %w", calldatas[i], err)
			}
			data = d
		}
		content.Targets = append(content.Targets, common.HexToAddress(t))
		content.Values = append(content.Values, value)
		content.Calldatas = append(content.Calldatas, data)
	}
	return content, nil
}

// applySettings overrides the configured proposal settings from the flags.
func applySettings(ctx *cli.Context, settings governance.Settings) governance.Settings {
	if ctx.Bool(rejectFlag.Name) {
		settings.Accept = false
	}
	if ctx.IsSet(votingStartFlag.Name) {
		settings.VotingStartTs = ctx.Uint64(votingStartFlag.Name)
	}
	if ctx.IsSet(votingPeriodFlag.Name) {
		settings.VotingPeriodSeconds = ctx.Uint64(votingPeriodFlag.Name)
	}
	if ctx.IsSet(thresholdFlag.Name) {
		settings.ThresholdConditionBIPS = ctx.Uint64(thresholdFlag.Name)
	}
	if ctx.IsSet(majorityFlag.Name) {
		settings.MajorityConditionBIPS = ctx.Uint64(majorityFlag.Name)
	}
	return settings
}

func parseID(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid proposal id %q", s)
	}
	return common.BytesToHash(b), nil
}

func parseSupport(s string) (governance.Support, error) {
	switch strings.ToLower(s) {
	case "for", "1":
		return governance.SupportFor, nil
	case "against", "0":
		return governance.SupportAgainst, nil
	}
	return 0, fmt.Errorf("invalid support %q, want for or against", s)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseAddresses(args []string) ([]common.Address, error) {
	if len(args) == 0 {
		return nil, errors.New("no addresses given")
	}
	addrs := make([]common.Address, 0, len(args))
	for _, arg := range args {
		addr, err := parseAddress(arg)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func parseUint(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

// argN returns the positional arguments, which must be exactly n.
func argN(ctx *cli.Context, n int) ([]string, error) {
	if ctx.NArg() != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, ctx.NArg())
	}
	return ctx.Args().Slice(), nil
}
