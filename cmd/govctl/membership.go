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

	"github.com/flare-foundation/go-flare-governance/incentive"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var errNotGroup = errors.New("governor is not a management group")

var (
	chillReasonFlag = &cli.StringFlag{
		Name:  "reason",
		Usage: "Reason recorded with the chill",
	}

	membersCommand = &cli.Command{
		Name:  "members",
		Usage: "Manage the members of a management group",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the members",
				Action: listMembers,
			},
			{
				Name:   "join",
				Usage:  "Join the group as --from",
				Action: joinGroup,
			},
			{
				Name:      "remove",
				Usage:     "Remove a member that is chilled, unrewarded or inactive",
				ArgsUsage: "<address>",
				Action:    removeMember,
			},
			{
				Name:      "add",
				Usage:     "Add members as the maintainer",
				ArgsUsage: "<address>...",
				Action:    addMembers,
			},
			{
				Name:      "kick",
				Usage:     "Remove members as the maintainer",
				ArgsUsage: "<address>...",
				Action:    kickMembers,
			},
		},
	}

	rewardsCommand = &cli.Command{
		Name:  "rewards",
		Usage: "Record reward epoch results",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a reward to a beneficiary",
				ArgsUsage: "<address> <epoch> <amount>",
				Action:    addReward,
			},
			{
				Name:      "finalize",
				Usage:     "Finalize a reward epoch",
				ArgsUsage: "<epoch>",
				Action:    finalizeEpoch,
			},
			{
				Name:      "chill",
				Usage:     "Chill an address until a reward epoch",
				ArgsUsage: "<address> <until>",
				Flags:     []cli.Flag{chillReasonFlag},
				Action:    chill,
			},
			{
				Name:      "show",
				Usage:     "Show the reward and chill status of an address",
				ArgsUsage: "<address> <epoch>",
				Action:    showRewards,
			},
		},
	}
)

func withGroup(ctx *cli.Context, fn func(n *node) error) error {
	return withNode(ctx, func(n *node) error {
		if n.group == nil {
			return errNotGroup
		}
		return fn(n)
	})
}

func listMembers(ctx *cli.Context) error {
	return withGroup(ctx, func(n *node) error {
		members, err := n.group.Members()
		if err != nil {
			return err
		}
		for _, addr := range members {
			m, err := n.group.Member(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "%s joined=%d epoch=%d\n", addr.Hex(), m.JoinedAt, m.JoinEpoch)
		}
		return nil
	})
}

func joinGroup(ctx *cli.Context) error {
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	return withGroup(ctx, func(n *node) error {
		if err := n.group.AddMember(from, now(ctx)); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, "joined")
		return nil
	})
}

func removeMember(ctx *cli.Context) error {
	args, err := argN(ctx, 1)
	if err != nil {
		return err
	}
	member, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	return withGroup(ctx, func(n *node) error {
		if err := n.group.RemoveMember(member, now(ctx)); err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, "removed")
		return nil
	})
}

func addMembers(ctx *cli.Context) error {
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	addrs, err := parseAddresses(ctx.Args().Slice())
	if err != nil {
		return err
	}
	return withGroup(ctx, func(n *node) error {
		return n.group.AddMembers(from, addrs, now(ctx))
	})
}

func kickMembers(ctx *cli.Context) error {
	from, err := caller(ctx)
	if err != nil {
		return err
	}
	addrs, err := parseAddresses(ctx.Args().Slice())
	if err != nil {
		return err
	}
	return withGroup(ctx, func(n *node) error {
		return n.group.RemoveMembers(from, addrs)
	})
}

func addReward(ctx *cli.Context) error {
	args, err := argN(ctx, 3)
	if err != nil {
		return err
	}
	beneficiary, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	epoch, err := parseUint(args[1])
	if err != nil {
		return err
	}
	amount, err := uint256.FromDecimal(args[2])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[2], err)
	}
	return withNode(ctx, func(n *node) error {
		if err := n.ledger.AddReward(beneficiary, epoch, amount); err != nil {
			return err
		}
		if n.mirror != nil {
			return n.mirror.SetReward(beneficiary, epoch, n.ledger.RewardOf(beneficiary, epoch))
		}
		return nil
	})
}

func finalizeEpoch(ctx *cli.Context) error {
	args, err := argN(ctx, 1)
	if err != nil {
		return err
	}
	epoch, err := parseUint(args[0])
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		if err := n.ledger.Finalize(epoch); err != nil {
			return err
		}
		if n.mirror != nil {
			return n.mirror.SetFinalized(epoch)
		}
		return nil
	})
}

func chill(ctx *cli.Context) error {
	args, err := argN(ctx, 2)
	if err != nil {
		return err
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	until, err := parseUint(args[1])
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		ts := now(ctx)
		epoch, _ := n.clock.CurrentEpoch(ts)
		err := n.chills.Chill(&incentive.ChillRecord{
			Address:   addr,
			Epoch:     epoch,
			Until:     until,
			Reason:    ctx.String(chillReasonFlag.Name),
			Timestamp: ts,
		})
		if err != nil {
			return err
		}
		if n.mirror != nil {
			return n.mirror.SetChilledUntil(addr, n.chills.ChilledUntil(addr))
		}
		return nil
	})
}

func showRewards(ctx *cli.Context) error {
	args, err := argN(ctx, 2)
	if err != nil {
		return err
	}
	addr, err := parseAddress(args[0])
	if err != nil {
		return err
	}
	epoch, err := parseUint(args[1])
	if err != nil {
		return err
	}
	return withNode(ctx, func(n *node) error {
		w := ctx.App.Writer
		fmt.Fprintf(w, "reward:        %s\n", n.ledger.RewardOf(addr, epoch).Dec())
		fmt.Fprintf(w, "finalized:     %t\n", n.ledger.IsFinalized(epoch))
		fmt.Fprintf(w, "chilled until: %d\n", n.chills.ChilledUntil(addr))
		if n.mirror != nil {
			fmt.Fprintf(w, "state root:    %s\n", n.mirror.Root().Hex())
		}
		return nil
	})
}
