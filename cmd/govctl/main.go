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

// govctl manages Flare governance proposals from the command line.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/flare-foundation/go-flare-governance/internal/config"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "TOML configuration `FILE`",
		EnvVars: []string{"GOVCTL_CONFIG"},
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "Address the command is issued by",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a rotated `FILE` instead of stderr",
	}
	nowFlag = &cli.Uint64Flag{
		Name:  "now",
		Usage: "Unix time the command is evaluated at (defaults to the wall clock)",
	}
)

func newApp() *cli.App {
	app := &cli.App{
		Name:  "govctl",
		Usage: "Flare governance proposal and voting tool",
		Flags: []cli.Flag{configFlag, verbosityFlag, logFileFlag, fromFlag, nowFlag},
		Commands: []*cli.Command{
			proposalIDCommand,
			proposeCommand,
			voteCommand,
			signBallotCommand,
			cancelCommand,
			executeCommand,
			stateCommand,
			listCommand,
			membersCommand,
			rewardsCommand,
			dumpConfigCommand,
		},
		Before: setupLogging,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) error {
	var (
		output   io.Writer = os.Stderr
		useColor           = (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if file := ctx.String(logFileFlag.Name); file != "" {
		output = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 10,
			Compress:   true,
		}
		useColor = false
	} else if useColor {
		output = colorable.NewColorableStderr()
	}
	handler := log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)), useColor)
	log.SetDefault(log.NewLogger(handler))
	return nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.Load(ctx.String(configFlag.Name))
}

// now returns the evaluation time of the command.
func now(ctx *cli.Context) uint64 {
	if ctx.IsSet(nowFlag.Name) {
		return ctx.Uint64(nowFlag.Name)
	}
	return uint64(time.Now().Unix())
}

// caller returns the issuing address, which is required.
func caller(ctx *cli.Context) (common.Address, error) {
	from := ctx.String(fromFlag.Name)
	if !common.IsHexAddress(from) {
		return common.Address{}, fmt.Errorf("--%s must be an address, got %q", fromFlag.Name, from)
	}
	return common.HexToAddress(from), nil
}
