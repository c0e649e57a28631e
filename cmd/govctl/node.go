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
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"github.com/flare-foundation/go-flare-governance/dispatch"
	"github.com/flare-foundation/go-flare-governance/governance"
	"github.com/flare-foundation/go-flare-governance/incentive"
	"github.com/flare-foundation/go-flare-governance/internal/config"
	"github.com/flare-foundation/go-flare-governance/storage"
)

// node is a governor of the configured variant together with its database
// and connections.
type node struct {
	config *config.Config
	db     *storage.Database

	governor   *governance.Governor
	foundation *governance.FoundationPolicy
	provider   *governance.ProviderPolicy
	group      *governance.ManagementGroup

	clock  *incentive.EpochClock
	ledger *incentive.RewardLedger
	chills *incentive.ChillRegistry
	mirror *incentive.StateMirror // set for the state reward source

	recorder *dispatch.Recorder
	clients  []*ethclient.Client
}

func openNode(ctx context.Context, cfg *config.Config) (*node, error) {
	db, err := storage.Open(&cfg.Storage)
	if err != nil {
		return nil, err
	}
	clock, err := incentive.NewEpochClock(&cfg.Epochs)
	if err != nil {
		db.Close()
		return nil, err
	}
	n := &node{
		config: cfg,
		db:     db,
		clock:  clock,
		ledger: incentive.NewRewardLedger(db),
		chills: incentive.NewChillRegistry(db),
	}
	if cfg.Rewards.Source == incentive.SourceState {
		if n.mirror, err = incentive.OpenStateMirror(db, cfg.Rewards.Contract); err != nil {
			db.Close()
			return nil, err
		}
	}
	switch cfg.Governor.Variant {
	case config.VariantFoundation:
		err = n.openFoundation(ctx)
	case config.VariantProvider:
		err = n.openProvider()
	case config.VariantManagementGroup:
		err = n.openManagementGroup()
	default:
		err = fmt.Errorf("unknown governor variant %q", cfg.Governor.Variant)
	}
	if err != nil {
		n.Close()
		return nil, err
	}
	log.Debug("Opened governor", "variant", cfg.Governor.Variant, "address", cfg.Governor.Address)
	return n, nil
}

func (n *node) openFoundation(ctx context.Context) error {
	weights, supply, err := n.config.VotePowerWeights()
	if err != nil {
		return err
	}
	votePower := governance.NewInMemoryVotePower()
	votePower.SetSupply(0, supply)
	for addr, weight := range weights {
		votePower.SetWeight(addr, 0, weight)
	}
	n.foundation = governance.NewFoundationPolicy(votePower, n.config.Foundation.Proposers...)

	var snapshots governance.SnapshotProvider = governance.StaticSnapshots{}
	if url := n.config.VotePower.RPC; url != "" {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return fmt.Errorf("could not connect to %s: %w", url, err)
		}
		n.clients = append(n.clients, client)
		snapshots = governance.NewHeaderSnapshots(client)
	}
	var dispatcher governance.CallDispatcher
	if url := n.config.Dispatch.RPC; url != "" {
		d, client, err := dispatch.Dial(ctx, url, n.config.Dispatch.Key, dispatch.RPCConfig{
			GasLimit:       n.config.Dispatch.GasLimit,
			ReceiptTimeout: n.config.Dispatch.ReceiptTimeout,
		})
		if err != nil {
			return err
		}
		n.clients = append(n.clients, client)
		dispatcher = d
	} else {
		n.recorder = dispatch.NewRecorder()
		dispatcher = n.recorder
	}
	n.governor, err = governance.NewGovernor(n.config.GovernanceConfig(), n.db, governance.Backends{
		Policy:     n.foundation,
		VotePower:  votePower,
		Snapshots:  snapshots,
		Dispatcher: dispatcher,
	})
	return err
}

func (n *node) openProvider() error {
	registry := governance.NewInMemoryVoterRegistry(n.clock)
	for i, r := range n.config.Provider.Registrations {
		weight, err := r.Amount()
		if err != nil {
			return fmt.Errorf("registration %d: %w", i, err)
		}
		if err := registry.Register(r.Voter, r.Epoch, weight); err != nil {
			return fmt.Errorf("registration %d: %w", i, err)
		}
	}
	n.provider = governance.NewProviderPolicy(registry, n.config.Provider.Maintainer)
	for _, p := range n.config.Provider.Proxies {
		if err := n.provider.SetProxyVoter(p.Voter, p.Proxy); err != nil {
			return err
		}
	}
	var err error
	n.governor, err = governance.NewGovernor(n.config.GovernanceConfig(), n.db, governance.Backends{
		Policy:    n.provider,
		VotePower: governance.RegistryVotePower{Registry: registry},
		Snapshots: governance.NewEpochSnapshots(registry),
	})
	return err
}

func (n *node) openManagementGroup() error {
	mgc := n.config.ManagementGroup
	var signal governance.RewardSignal = incentive.NewSignal(n.clock, n.ledger, n.chills)
	if n.mirror != nil {
		signal = n.mirror.Signal(n.clock)
	}
	group, err := governance.NewManagementGroup(n.config.GovernanceConfig(), n.db, signal, mgc.Maintainer, mgc.Params)
	if err != nil {
		return err
	}
	n.group = group
	n.governor = group.Governor

	// Seed the configured members into a fresh database only.
	members, err := group.Members()
	if err != nil {
		return err
	}
	ids, err := group.ProposalIDs()
	if err != nil {
		return err
	}
	if len(members) == 0 && len(ids) == 0 && len(mgc.Members) > 0 {
		return group.AddMembers(mgc.Maintainer, mgc.Members, n.clock.EpochStart(0))
	}
	return nil
}

func (n *node) Close() {
	for _, client := range n.clients {
		client.Close()
	}
	if err := n.db.Close(); err != nil {
		log.Warn("Failed to close database", "err", err)
	}
}
