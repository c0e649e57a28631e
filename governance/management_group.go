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
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/holiman/uint256"
)

const (
	secondsPerDay = 24 * 3600

	reasonMaintainer = "maintainer"
)

// ManagementGroupParams are the membership rules of a management group.
type ManagementGroupParams struct {
	// AddAfterRewardedEpochs is the number of finalized reward epochs, all
	// rewarded, a candidate needs before joining.
	AddAfterRewardedEpochs uint64

	// AddAfterNotChilledEpochs is the number of reward epochs a chilled
	// address waits after its chill ends before joining.
	AddAfterNotChilledEpochs uint64

	// RemoveAfterNotRewardedEpochs is the length of the rewardless streak
	// that makes a member removable.
	RemoveAfterNotRewardedEpochs uint64

	// RemoveAfterEligibleProposals is how many of the latest relevant
	// proposals are checked for participation.
	RemoveAfterEligibleProposals uint64

	// RemoveAfterNonParticipatingProposals is how many of those a member may
	// miss before becoming removable.
	RemoveAfterNonParticipatingProposals uint64

	// RemoveForDays is the cooldown after removal during which the address
	// cannot join again.
	RemoveForDays uint64
}

// DefaultManagementGroupParams returns the membership rules used on Flare.
func DefaultManagementGroupParams() ManagementGroupParams {
	return ManagementGroupParams{
		AddAfterRewardedEpochs:               10,
		AddAfterNotChilledEpochs:             2,
		RemoveAfterNotRewardedEpochs:         16,
		RemoveAfterEligibleProposals:         8,
		RemoveAfterNonParticipatingProposals: 3,
		RemoveForDays:                        7,
	}
}

// Validate checks the consistency of the parameters.
func (p *ManagementGroupParams) Validate() error {
	if p.RemoveAfterNonParticipatingProposals > p.RemoveAfterEligibleProposals {
		return fmt.Errorf("%w: non-participating proposals %d above eligible proposals %d",
			ErrInvalidSettings, p.RemoveAfterNonParticipatingProposals, p.RemoveAfterEligibleProposals)
	}
	return nil
}

// Member is the bookkeeping of a management group member.
type Member struct {
	Address         common.Address
	JoinedAt        uint64      // timestamp of joining
	JoinEpoch       uint64      // reward epoch of joining
	JoinProposalID  common.Hash // latest proposal when joining
	HasJoinProposal bool
}

// ManagementGroup is a polling governor whose electorate is a dynamic set
// of members. Every member votes with unit weight. Members join on their
// own once they earned rewards for long enough, and anyone may remove a
// member that is chilled, stopped earning rewards or stopped voting.
type ManagementGroup struct {
	*Governor

	signal     RewardSignal
	maintainer common.Address

	mu      sync.RWMutex
	params  ManagementGroupParams
	members *memberStore
}

// NewManagementGroup creates a management group governor.
func NewManagementGroup(config *Config, db ethdb.KeyValueStore, signal RewardSignal, maintainer common.Address, params ManagementGroupParams) (*ManagementGroup, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	mg := &ManagementGroup{
		signal:     signal,
		maintainer: maintainer,
		params:     params,
	}
	governor, err := NewGovernor(config, db, Backends{
		Policy:    &managementGroupPolicy{mg: mg},
		VotePower: UnitWeightOracle{},
		Snapshots: NewEpochSnapshots(signal),
	})
	if err != nil {
		return nil, err
	}
	mg.Governor = governor
	mg.members = newMemberStore(db, config.Address)
	membersGauge.Update(int64(mg.members.count()))
	return mg, nil
}

// AddMember lets caller join the group.
func (mg *ManagementGroup) AddMember(caller common.Address, now uint64) error {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	if mg.members.has(caller) {
		return ErrAlreadyMember
	}
	if removed, ok := mg.members.lastRemoval(caller); ok && removed+mg.params.RemoveForDays*secondsPerDay > now {
		return fmt.Errorf("%w: removed at %d", ErrCooldownActive, removed)
	}
	epoch, _ := mg.signal.CurrentEpoch(now)
	if until := mg.signal.ChilledUntil(caller); until > 0 && until+mg.params.AddAfterNotChilledEpochs > epoch {
		return fmt.Errorf("%w: chilled until epoch %d", ErrCooldownActive, until)
	}

	// Walk back over finalized epochs; pending ones are not held against the caller.
	var rewarded uint64
	for e := epoch; e > 0 && rewarded < mg.params.AddAfterRewardedEpochs; {
		e--
		if !mg.signal.IsInitialized(caller, e) {
			continue
		}
		if mg.signal.RewardIsZero(caller, e) {
			return fmt.Errorf("%w: no reward in epoch %d", ErrNotEligible, e)
		}
		rewarded++
	}
	if rewarded < mg.params.AddAfterRewardedEpochs {
		return fmt.Errorf("%w: %d of %d rewarded epochs", ErrInsufficientHistory, rewarded, mg.params.AddAfterRewardedEpochs)
	}
	return mg.addMembers([]common.Address{caller}, epoch, now)
}

// RemoveMember removes a member that is chilled, went without rewards for
// too long or missed too many relevant proposals. Anyone may call it.
func (mg *ManagementGroup) RemoveMember(member common.Address, now uint64) error {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	m, ok := mg.members.get(member)
	if !ok {
		return ErrNotMember
	}
	epoch, _ := mg.signal.CurrentEpoch(now)
	if mg.signal.ChilledUntil(member) > epoch {
		return mg.removeMembers([]common.Address{member}, now, "chilled")
	}
	if mg.rewardlessStreak(m, epoch) {
		return mg.removeMembers([]common.Address{member}, now, "not rewarded")
	}
	missed, err := mg.missedProposals(m, now)
	if err != nil {
		return err
	}
	if k := mg.params.RemoveAfterNonParticipatingProposals; k > 0 && missed >= k {
		return mg.removeMembers([]common.Address{member}, now, "not participating")
	}
	return ErrCannotRemove
}

// rewardlessStreak reports whether the latest finalized epochs since the
// member joined, including the join epoch, earned no reward.
func (mg *ManagementGroup) rewardlessStreak(m *Member, epoch uint64) bool {
	need := mg.params.RemoveAfterNotRewardedEpochs
	if need == 0 || epoch == 0 || epoch-1 < m.JoinEpoch {
		return false
	}
	var streak uint64
	for e := epoch - 1; ; e-- {
		if mg.signal.IsInitialized(m.Address, e) {
			if !mg.signal.RewardIsZero(m.Address, e) {
				return false
			}
			if streak++; streak >= need {
				return true
			}
		}
		if e == 0 || e <= m.JoinEpoch {
			return false
		}
	}
}

// missedProposals counts the relevant proposals the member did not vote on,
// among the latest RemoveAfterEligibleProposals relevant ones created after
// the member joined. A proposal is relevant when its voting ended without
// cancellation and with quorum.
func (mg *ManagementGroup) missedProposals(m *Member, now uint64) (uint64, error) {
	limit := mg.params.RemoveAfterEligibleProposals
	if limit == 0 {
		return 0, nil
	}
	var relevant, missed uint64
	for i := mg.store.Count(); i > 0 && relevant < limit; i-- {
		id, err := mg.store.IDAt(i - 1)
		if err != nil {
			return 0, err
		}
		if m.HasJoinProposal && id == m.JoinProposalID {
			break
		}
		p, err := mg.store.Get(id)
		if err != nil {
			return 0, err
		}
		if p.Canceled || now < p.VoteEnd {
			continue
		}
		votes, err := mg.tally.VotesOf(id)
		if err != nil {
			return 0, err
		}
		if !QuorumReached(p, votes, RoundUp) {
			continue
		}
		relevant++
		if !mg.tally.HasVoted(id, m.Address) {
			missed++
		}
	}
	return missed, nil
}

// AddMembers adds members without eligibility checks. Maintainer only.
func (mg *ManagementGroup) AddMembers(caller common.Address, addrs []common.Address, now uint64) error {
	if caller != mg.maintainer {
		return ErrNotMaintainer
	}
	mg.mu.Lock()
	defer mg.mu.Unlock()

	seen := make(map[common.Address]bool, len(addrs))
	for _, addr := range addrs {
		if mg.members.has(addr) || seen[addr] {
			return fmt.Errorf("%w: %s", ErrAlreadyMember, addr.Hex())
		}
		seen[addr] = true
	}
	epoch, _ := mg.signal.CurrentEpoch(now)
	return mg.addMembers(addrs, epoch, now)
}

// RemoveMembers removes members unconditionally. Maintainer only. No
// rejoin cooldown applies to addresses removed this way.
func (mg *ManagementGroup) RemoveMembers(caller common.Address, addrs []common.Address) error {
	if caller != mg.maintainer {
		return ErrNotMaintainer
	}
	mg.mu.Lock()
	defer mg.mu.Unlock()

	for _, addr := range addrs {
		if !mg.members.has(addr) {
			return fmt.Errorf("%w: %s", ErrNotMember, addr.Hex())
		}
	}
	return mg.removeMembers(addrs, 0, reasonMaintainer)
}

// SetParameters replaces the membership rules. Maintainer only.
func (mg *ManagementGroup) SetParameters(caller common.Address, params ManagementGroupParams) error {
	if caller != mg.maintainer {
		return ErrNotMaintainer
	}
	if err := params.Validate(); err != nil {
		return err
	}
	mg.mu.Lock()
	mg.params = params
	mg.mu.Unlock()

	mg.log.Info("Management group parameters updated", "params", fmt.Sprintf("%+v", params))
	return nil
}

// Parameters returns the membership rules.
func (mg *ManagementGroup) Parameters() ManagementGroupParams {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	return mg.params
}

// IsMember reports whether addr is a member.
func (mg *ManagementGroup) IsMember(addr common.Address) bool {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	return mg.members.has(addr)
}

// Member returns the bookkeeping of a member.
func (mg *ManagementGroup) Member(addr common.Address) (*Member, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	m, ok := mg.members.get(addr)
	if !ok {
		return nil, ErrNotMember
	}
	return m, nil
}

// Members returns all members ordered by address.
func (mg *ManagementGroup) Members() ([]common.Address, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()

	return mg.members.all()
}

// Maintainer returns the maintainer address.
func (mg *ManagementGroup) Maintainer() common.Address {
	return mg.maintainer
}

func (mg *ManagementGroup) addMembers(addrs []common.Address, epoch, now uint64) error {
	latest, hasLatest := mg.store.Latest()

	batch := mg.store.db.NewBatch()
	for _, addr := range addrs {
		m := &Member{Address: addr, JoinedAt: now, JoinEpoch: epoch, JoinProposalID: latest, HasJoinProposal: hasLatest}
		if err := mg.members.put(batch, m); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	for _, addr := range addrs {
		membersAddedMeter.Mark(1)
		mg.log.Info("Member added", "member", addr, "epoch", epoch)
	}
	membersGauge.Update(int64(mg.members.count()))
	return nil
}

// removeMembers deletes members. Only self-service removals start a rejoin cooldown.
func (mg *ManagementGroup) removeMembers(addrs []common.Address, now uint64, reason string) error {
	batch := mg.store.db.NewBatch()
	for _, addr := range addrs {
		if err := mg.members.remove(batch, addr, now, reason != reasonMaintainer); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	for _, addr := range addrs {
		membersRemovedMeter.Mark(1)
		mg.log.Info("Member removed", "member", addr, "reason", reason)
	}
	membersGauge.Update(int64(mg.members.count()))
	return nil
}

// managementGroupPolicy adapts the group to EligibilityPolicy.
type managementGroupPolicy struct {
	mg *ManagementGroup
}

func (mp *managementGroupPolicy) Principal(caller common.Address) common.Address { return caller }

func (mp *managementGroupPolicy) CanPropose(caller common.Address, _ uint64) bool {
	return mp.mg.IsMember(caller)
}

// CanVote admits members that joined no later than the proposal was created.
func (mp *managementGroupPolicy) CanVote(principal common.Address, p *Proposal) bool {
	mp.mg.mu.RLock()
	defer mp.mg.mu.RUnlock()

	m, ok := mp.mg.members.get(principal)
	return ok && m.JoinedAt <= p.CreatedAt
}

func (mp *managementGroupPolicy) CanCancel(caller, proposer common.Address) bool {
	return caller == proposer
}

func (mp *managementGroupPolicy) QuorumBasis(Snapshot) (*uint256.Int, error) {
	mp.mg.mu.RLock()
	defer mp.mg.mu.RUnlock()

	members, err := mp.mg.members.all()
	if err != nil {
		return nil, err
	}
	return uint256.NewInt(uint64(len(members))), nil
}

// Rounding rounds the quorum up, so a small group cannot reach it with a
// fraction of a member.
func (mp *managementGroupPolicy) Rounding() Rounding { return RoundUp }

func (mp *managementGroupPolicy) ExecutionCapable() bool { return false }
