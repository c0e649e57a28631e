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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fatih/color"
	"github.com/flare-foundation/go-flare-governance/governance"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	reasonFlag = &cli.StringFlag{
		Name:  "reason",
		Usage: "Reason attached to the vote",
	}
	sigFlag = &cli.StringFlag{
		Name:  "sig",
		Usage: "Hex encoded ballot signature; the signer votes instead of --from",
	}
	keyFlag = &cli.StringFlag{
		Name:    "key",
		Usage:   "Hex encoded private key signing the ballot",
		EnvVars: []string{"GOVCTL_BALLOT_KEY"},
	}
	paymentFlag = &cli.StringFlag{
		Name:  "payment",
		Usage: "Wei sent along with the execution, must equal the sum of call values",
		Value: "0",
	}
)

var (
	proposalIDCommand = &cli.Command{
		Name:   "id",
		Usage:  "Compute the id of a proposal",
		Flags:  contentFlags,
		Action: proposalID,
	}
	proposeCommand = &cli.Command{
		Name:   "propose",
		Usage:  "Create a proposal",
		Flags:  append(append([]cli.Flag{}, contentFlags...), settingsFlags...),
		Action: propose,
	}
	voteCommand = &cli.Command{
		Name:      "vote",
		Usage:     "Vote on a proposal",
		ArgsUsage: "<id> <for|against>",
		Flags:     []cli.Flag{reasonFlag, sigFlag},
		Action:    vote,
	}
	signBallotCommand = &cli.Command{
		Name:      "sign-ballot",
		Usage:     "Sign a ballot for voting by signature",
		ArgsUsage: "<id> <for|against>",
		Flags:     []cli.Flag{keyFlag},
		Action:    signBallot,
	}
	cancelCommand = &cli.Command{
		Name:      "cancel",
		Usage:     "Cancel a proposal before its voting starts",
		ArgsUsage: "<id>",
		Action:    cancel,
	}
	executeCommand = &cli.Command{
		Name:      "execute",
		Usage:     "Execute a queued proposal",
		ArgsUsage: "<id>",
		Flags:     append(append([]cli.Flag{}, contentFlags...), paymentFlag),
		Action:    execute,
	}
	stateCommand = &cli.Command{
		Name:      "state",
		Usage:     "Show a proposal",
		ArgsUsage: "<id>",
		Action:    showProposal,
	}
	listCommand = &cli.Command{
		Name:   "list",
		Usage:  "List all proposals",
		Action: listProposals,
	}
	dumpConfigCommand = &cli.Command{
		Name:   "dumpconfig",
		Usage:  "Print the effective configuration",
		Action: dumpConfig,
	}
)

var stateColors = map[governance.ProposalState]*color.Color{
	governance.StatePending:   color.New(color.FgCyan),
	governance.StateActive:    color.New(color.FgBlue, color.Bold),
	governance.StateDefeated:  color.New(color.FgRed),
	governance.StateSucceeded: color.New(color.FgGreen),
	governance.StateQueued:    color.New(color.FgYellow),
	governance.StateExpired:   color.New(color.FgMagenta),
	governance.StateExecuted:  color.New(color.FgGreen, color.Bold),
	governance.StateCanceled:  color.New(color.Faint),
}

func colorState(state governance.ProposalState) string {
	if c, ok := stateColors[state]; ok {
		return c.Sprint(state)
	}
	return state.String()
}

// withNode opens the configured governor for the duration of fn.
func withNode(ctx *cli.Context, fn func(n *node) error) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	n, err := openNode(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	return fn(n)
}

func proposalID(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	content, err := parseContent(ctx)
	if err != nil {
		return err
	}
	gov := cfg.GovernanceConfig()
	id, err := governance.ComputeProposalID(gov.ChainID, gov.Address, content)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, id.Hex())
	return nil
}

func propose(ctx *cli.Context) error {
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	content, err := parseContent(ctx)
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		settings := applySettings(ctx, n.config.Settings)
		p, err := n.governor.Propose(ctx.Context, from, content, settings, now(ctx))
		if err != nil {
			return err
		}
		w := ctx.App.Writer
		fmt.Fprintln(w, p.ID.Hex())
		fmt.Fprintf(w, "voting:    %d - %d\n", p.VoteStart, p.VoteEnd)
		if p.ExecutableOnChain {
			fmt.Fprintf(w, "execution: %d - %d\n", p.ExecStart, p.ExecEnd)
		}
		return nil
	})
}

func vote(ctx *cli.Context) error {
	args, err := argN(ctx, 2)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	support, err := parseSupport(args[1])
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		var weight *uint256.Int
		if sig := ctx.String(sigFlag.Name); sig != "" {
			raw, err := hexutil.Decode(sig)
			if err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			if weight, err = n.governor.CastVoteBySig(id, support, raw, now(ctx)); err != nil {
				return err
			}
		} else {
			from, err := caller(ctx)
			if err != nil {
				return err
			}
			if weight, err = n.governor.CastVoteWithReason(id, from, support, ctx.String(reasonFlag.Name), now(ctx)); err != nil {
				return err
			}
		}
		fmt.Fprintf(ctx.App.Writer, "voted %s with weight %s\n", support, weight.Dec())
		return nil
	})
}

func signBallot(ctx *cli.Context) error {
	args, err := argN(ctx, 2)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	support, err := parseSupport(args[1])
	if err != nil {
		return err
	}
	key, err := crypto.HexToECDSA(ctx.String(keyFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", keyFlag.Name, err)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	digest, err := governance.BallotDigest(cfg.Governor.Name, new(big.Int).SetUint64(cfg.Governor.ChainID), cfg.Governor.Address, id, support)
	if err != nil {
		return err
	}
	sig, err := governance.SignBallot(key, digest)
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, hexutil.Encode(sig))
	return nil
}

func cancel(ctx *cli.Context) error {
	args, err := argN(ctx, 1)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		if err := n.governor.Cancel(id, from, now(ctx)); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, "canceled")
		return nil
	})
}

func execute(ctx *cli.Context) error {
	args, err := argN(ctx, 1)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	content, err := parseContent(ctx)
	if err != nil {
		return err
	}
	payment, err := uint256.FromDecimal(ctx.String(paymentFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid payment: %w", err)
	}
	return withNode(ctx, func(n *node) error {
		if err := n.governor.Execute(ctx.Context, id, from, content, payment, now(ctx)); err != nil {
			return err
		}
		if n.recorder != nil {
			for i, call := range n.recorder.Calls() {
				fmt.Fprintf(ctx.App.Writer, "call %d: %s value=%s data=%s\n", i, call.Target.Hex(), call.Value.Dec(), hexutil.Encode(call.Data))
			}
		}
		fmt.Fprintln(ctx.App.Writer, "executed")
		return nil
	})
}

func showProposal(ctx *cli.Context) error {
	args, err := argN(ctx, 1)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		info, err := n.governor.Info(id, now(ctx))
		if err != nil {
			return err
		}
		quorum, err := n.governor.QuorumReached(id)
		if err != nil {
			return err
		}
		p, w := info.Proposal, ctx.App.Writer
		fmt.Fprintf(w, "id:          %s\n", p.ID.Hex())
		fmt.Fprintf(w, "state:       %s\n", colorState(info.State))
		fmt.Fprintf(w, "description: %s\n", p.Description)
		fmt.Fprintf(w, "proposer:    %s\n", p.Proposer.Hex())
		fmt.Fprintf(w, "accept:      %t\n", p.Accept)
		fmt.Fprintf(w, "snapshot:    %d (%d)\n", p.SnapshotRef, p.SnapshotTimestamp)
		fmt.Fprintf(w, "voting:      %d - %d\n", p.VoteStart, p.VoteEnd)
		if p.ExecutableOnChain {
			fmt.Fprintf(w, "execution:   %d - %d\n", p.ExecStart, p.ExecEnd)
		}
		fmt.Fprintf(w, "votes:       for=%s against=%s total=%s\n", info.Votes.For.Dec(), info.Votes.Against.Dec(), p.TotalWeight.Dec())
		fmt.Fprintf(w, "quorum:      %t\n", quorum)
		return nil
	})
}

func listProposals(ctx *cli.Context) error {
	return withNode(ctx, func(n *node) error {
		ids, err := n.governor.ProposalIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			info, err := n.governor.Info(id, now(ctx))
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "%s %-10s %s\n", id.Hex(), colorState(info.State), info.Proposal.Description)
		}
		return nil
	})
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	return cfg.Dump(ctx.App.Writer)
}
