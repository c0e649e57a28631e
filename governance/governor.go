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

package governance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Backends bundles the collaborators of a governor.
type Backends struct {
	Policy     EligibilityPolicy
	VotePower  VotePowerOracle
	Snapshots  SnapshotProvider
	Dispatcher CallDispatcher    // optional for execution incapable policies
	Verifier   SignatureVerifier // defaults to ECDSAVerifier
}

// Governor is the proposal and voting engine. It composes the proposal store,
// the vote tally and a variant specific eligibility policy. All operations are
// serialised, so the execution cursor and the has-voted check never race.
//
// Dispatched calls run while the governor is locked and must not call back
// into the same governor.
type Governor struct {
	config *Config
	store  *ProposalStore
	tally  *VoteTally

	policy     EligibilityPolicy
	votePower  VotePowerOracle
	snapshots  SnapshotProvider
	dispatcher CallDispatcher
	verifier   SignatureVerifier

	mu  sync.Mutex
	log log.Logger
}

// NewGovernor creates a governor persisting its state in db.
func NewGovernor(config *Config, db ethdb.KeyValueStore, backends Backends) (*Governor, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if backends.Policy == nil || backends.VotePower == nil || backends.Snapshots == nil {
		return nil, errors.New("governor requires a policy, a vote power oracle and a snapshot provider")
	}
	if backends.Policy.ExecutionCapable() && backends.Dispatcher == nil {
		return nil, errors.New("execution capable governor requires a call dispatcher")
	}
	verifier := backends.Verifier
	if verifier == nil {
		verifier = ECDSAVerifier{}
	}
	return &Governor{
		config:     config,
		store:      NewProposalStore(db, config.ChainID, config.Address),
		tally:      NewVoteTally(db, config.Address),
		policy:     backends.Policy,
		votePower:  backends.VotePower,
		snapshots:  backends.Snapshots,
		dispatcher: backends.Dispatcher,
		verifier:   verifier,
		log:        log.New("governor", config.Name),
	}, nil
}

// Config returns the governor configuration.
func (g *Governor) Config() *Config {
	return g.config
}

// Propose creates a new proposal on behalf of caller.
func (g *Governor) Propose(ctx context.Context, caller common.Address, content *Content, settings Settings, now uint64) (*Proposal, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := content.Validate(); err != nil {
		return nil, err
	}
	if content.Executable() && !g.policy.ExecutionCapable() {
		return nil, fmt.Errorf("%w: governor does not execute on-chain calls", ErrInvalidSettings)
	}
	if err := settings.Validate(content.Executable()); err != nil {
		return nil, err
	}
	if !g.policy.CanPropose(caller, now) {
		return nil, fmt.Errorf("%w: %s cannot propose", ErrNotEligible, caller.Hex())
	}
	id, err := g.store.ComputeID(content)
	if err != nil {
		return nil, err
	}
	snapshot, err := g.snapshots.Snapshot(ctx, id, now, settings.VpBlockPeriodSeconds)
	if err != nil {
		return nil, fmt.Errorf("vote power snapshot: %w", err)
	}
	total, err := g.policy.QuorumBasis(snapshot)
	if err != nil {
		return nil, fmt.Errorf("quorum basis: %w", err)
	}
	p, err := g.store.Create(&ProposalRequest{
		Proposer:    g.policy.Principal(caller),
		Content:     content,
		Settings:    settings,
		Snapshot:    snapshot,
		TotalWeight: total,
		Now:         now,
		MaxDuration: g.config.MaxProposalDurationSeconds,
	})
	if err != nil {
		return nil, err
	}
	proposalCreatedMeter.Mark(1)
	g.log.Info("Proposal created", "id", p.ID, "proposer", p.Proposer, "accept", p.Accept,
		"snapshot", p.SnapshotRef, "voteStart", p.VoteStart, "voteEnd", p.VoteEnd,
		"execStart", p.ExecStart, "execEnd", p.ExecEnd, "total", p.TotalWeight)
	return p, nil
}

// CastVote records the vote of caller, or of the voter caller is a proxy for,
// and returns the weight applied.
func (g *Governor) CastVote(id common.Hash, caller common.Address, support Support, now uint64) (*uint256.Int, error) {
	return g.CastVoteWithReason(id, caller, support, "", now)
}

// CastVoteWithReason is CastVote with a free text reason that is logged.
func (g *Governor) CastVoteWithReason(id common.Hash, caller common.Address, support Support, reason string, now uint64) (*uint256.Int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.castVote(id, g.policy.Principal(caller), support, reason, now)
}

// CastVoteBySig records a vote signed off-chain. The signer is the voter.
func (g *Governor) CastVoteBySig(id common.Hash, support Support, sig []byte, now uint64) (*uint256.Int, error) {
	digest, err := BallotDigest(g.config.Name, g.config.ChainID, g.config.Address, id, support)
	if err != nil {
		return nil, err
	}
	signer, err := g.verifier.Recover(digest, sig)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.castVote(id, g.policy.Principal(signer), support, "", now)
}

func (g *Governor) castVote(id common.Hash, voter common.Address, support Support, reason string, now uint64) (*uint256.Int, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	state, err := g.deriveState(p, now)
	if err != nil {
		return nil, err
	}
	if state != StateActive {
		return nil, fmt.Errorf("%w: state %v", ErrNotActive, state)
	}
	if !g.policy.CanVote(voter, p) {
		return nil, fmt.Errorf("%w: %s cannot vote", ErrNotEligible, voter.Hex())
	}
	weight, err := g.votePower.WeightOf(voter, p.SnapshotRef)
	if err != nil {
		return nil, fmt.Errorf("vote power of %s: %w", voter.Hex(), err)
	}
	votes, err := g.tally.RecordVote(id, voter, support, weight)
	if err != nil {
		return nil, err
	}
	votesCastMeter.Mark(1)
	g.log.Info("Vote cast", "id", id, "voter", voter, "support", support, "weight", weight,
		"for", votes.For, "against", votes.Against, "reason", reason)
	return weight, nil
}

// Cancel cancels a proposal before its voting starts. Once voting started
// nobody can cancel, so the timing check precedes the caller check.
func (g *Governor) Cancel(id common.Hash, caller common.Address, now uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.store.Get(id)
	if err != nil {
		return err
	}
	if p.Canceled {
		return ErrAlreadyCanceled
	}
	if now >= p.VoteStart {
		return fmt.Errorf("%w: vote start %d", ErrVotingAlreadyStarted, p.VoteStart)
	}
	if !g.policy.CanCancel(caller, p.Proposer) {
		return fmt.Errorf("%w: %s", ErrNotProposer, caller.Hex())
	}
	if err := g.store.MarkCanceled(id); err != nil {
		return err
	}
	proposalCanceledMeter.Mark(1)
	g.log.Info("Proposal canceled", "id", id, "by", caller)
	return nil
}

// Execute marks a queued proposal as executed and performs its calls. The
// content must hash to id. The payment must equal the sum of call values.
// If any call fails, the proposal stays unexecuted and the failure of the
// call is returned as a *SubcallError. A later Execute resumes at the
// failed call; calls that already went through are not repeated.
func (g *Governor) Execute(ctx context.Context, id common.Hash, caller common.Address, content *Content, payment *uint256.Int, now uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	computed, err := g.store.ComputeID(content)
	if err != nil {
		return err
	}
	if computed != id {
		return fmt.Errorf("%w: content hashes to %s", ErrContentMismatch, computed.Hex())
	}
	p, err := g.store.Get(id)
	if err != nil {
		return err
	}
	if p.Executed {
		return ErrAlreadyExecuted
	}
	if p.Proposer != caller {
		return fmt.Errorf("%w: %s", ErrNotProposer, caller.Hex())
	}
	state, err := g.deriveState(p, now)
	if err != nil {
		return err
	}
	if state != StateQueued {
		return fmt.Errorf("%w: state %v", ErrNotQueued, state)
	}
	if payment == nil {
		payment = new(uint256.Int)
	}
	total, ok := content.TotalValue()
	if !ok || !total.Eq(payment) {
		return fmt.Errorf("%w: payment %v", ErrValueMismatch, payment)
	}
	if p.ExecutableOnChain {
		if err := g.dispatchCalls(ctx, id, content); err != nil {
			return err
		}
	}
	if err := g.store.MarkExecuted(id); err != nil {
		return err
	}
	proposalExecutedMeter.Mark(1)
	g.log.Info("Proposal executed", "id", id, "calls", len(content.Targets))
	return nil
}

// dispatchCalls performs the calls of a proposal not yet performed by an
// earlier attempt. With a CallSimulator, all of them are simulated first and
// nothing is dispatched if one would fail.
func (g *Governor) dispatchCalls(ctx context.Context, id common.Hash, content *Content) error {
	start := g.store.Dispatched(id)
	if start > len(content.Targets) {
		start = len(content.Targets)
	}
	if sim, ok := g.dispatcher.(CallSimulator); ok {
		for i := start; i < len(content.Targets); i++ {
			if ret, err := sim.Simulate(ctx, content.Targets[i], content.Values[i], content.Calldatas[i]); err != nil {
				executionFailedMeter.Mark(1)
				g.log.Warn("Proposal call would fail", "id", id, "index", i, "target", content.Targets[i], "err", err)
				return newSubcallError(i, ret, err)
			}
		}
	}
	for i := start; i < len(content.Targets); i++ {
		ret, err := g.dispatcher.Dispatch(ctx, content.Targets[i], content.Values[i], content.Calldatas[i])
		if err != nil {
			executionFailedMeter.Mark(1)
			g.log.Warn("Proposal call failed", "id", id, "index", i, "target", content.Targets[i], "err", err)
			return newSubcallError(i, ret, err)
		}
		if err := g.store.SetDispatched(id, i+1); err != nil {
			return err
		}
	}
	return nil
}

func newSubcallError(index int, ret []byte, cause error) *SubcallError {
	serr := &SubcallError{Index: index, Data: ret}
	if reason, err := abi.UnpackRevert(ret); err == nil {
		serr.Reason = reason
	} else {
		var nested *SubcallError
		if errors.As(cause, &nested) {
			serr.Reason = nested.Reason
		}
	}
	return serr
}

// State returns the lifecycle state of a proposal at time now.
func (g *Governor) State(id common.Hash, now uint64) (ProposalState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.store.Get(id)
	if err != nil {
		return 0, err
	}
	return g.deriveState(p, now)
}

func (g *Governor) deriveState(p *Proposal, now uint64) (ProposalState, error) {
	votes, err := g.tally.VotesOf(p.ID)
	if err != nil {
		return 0, err
	}
	return DeriveState(p, votes, now, g.policy.Rounding(), g.policy.ExecutionCapable())
}

// Proposal returns a stored proposal.
func (g *Governor) Proposal(id common.Hash) (*Proposal, error) {
	return g.store.Get(id)
}

// Votes returns the accumulated votes of a proposal.
func (g *Governor) Votes(id common.Hash) (*ProposalVotes, error) {
	if _, err := g.store.Get(id); err != nil {
		return nil, err
	}
	return g.tally.VotesOf(id)
}

// HasVoted reports whether voter voted on the proposal.
func (g *Governor) HasVoted(id common.Hash, voter common.Address) bool {
	return g.tally.HasVoted(id, voter)
}

// Receipt returns the ballot voter cast on the proposal.
func (g *Governor) Receipt(id common.Hash, voter common.Address) (*Receipt, bool) {
	return g.tally.Receipt(id, voter)
}

// ProposalIDs returns the ids of all proposals in creation order.
func (g *Governor) ProposalIDs() ([]common.Hash, error) {
	return g.store.IDs()
}

// LastProposal returns the most recently created proposal.
func (g *Governor) LastProposal() (*Proposal, error) {
	id, ok := g.store.Latest()
	if !ok {
		return nil, ErrUnknownProposal
	}
	return g.store.Get(id)
}

// Info returns a proposal together with its votes and state at time now.
func (g *Governor) Info(id common.Hash, now uint64) (*ProposalInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.store.Get(id)
	if err != nil {
		return nil, err
	}
	votes, err := g.tally.VotesOf(id)
	if err != nil {
		return nil, err
	}
	state, err := DeriveState(p, votes, now, g.policy.Rounding(), g.policy.ExecutionCapable())
	if err != nil {
		return nil, err
	}
	return &ProposalInfo{Proposal: p, Votes: votes, State: state}, nil
}

// QuorumReached reports whether a proposal reached its turnout threshold.
func (g *Governor) QuorumReached(id common.Hash) (bool, error) {
	p, err := g.store.Get(id)
	if err != nil {
		return false, err
	}
	votes, err := g.tally.VotesOf(id)
	if err != nil {
		return false, err
	}
	return QuorumReached(p, votes, g.policy.Rounding()), nil
}

// NextExecutionStart returns the earliest time the next execution window may open.
func (g *Governor) NextExecutionStart() uint64 {
	return g.store.NextExecutionStart()
}
