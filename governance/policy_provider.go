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
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// ProviderPolicy is the eligibility policy of the FTSO provider polling
// governor. Registered voters, their proxies and the maintainer may propose;
// voters registered in the reward epoch of a proposal may vote on it. Each
// voter may appoint a single proxy and each proxy serves a single voter.
type ProviderPolicy struct {
	registry   VoterRegistry
	maintainer common.Address

	mu           sync.RWMutex
	voterToProxy map[common.Address]common.Address
	proxyToVoter map[common.Address]common.Address
}

// NewProviderPolicy creates a provider policy over the given registry.
func NewProviderPolicy(registry VoterRegistry, maintainer common.Address) *ProviderPolicy {
	return &ProviderPolicy{
		registry:     registry,
		maintainer:   maintainer,
		voterToProxy: make(map[common.Address]common.Address),
		proxyToVoter: make(map[common.Address]common.Address),
	}
}

// SetProxyVoter appoints proxy to act on behalf of voter, replacing the
// previous proxy of voter. The zero address clears the proxy. Proxies do not
// chain: a proxy cannot appoint a proxy of its own and vice versa.
func (pp *ProviderPolicy) SetProxyVoter(voter, proxy common.Address) error {
	pp.mu.Lock()
	defer pp.mu.Unlock()

	if proxy != (common.Address{}) {
		if proxy == voter {
			return fmt.Errorf("%w: %s cannot proxy for itself", ErrProxyConflict, voter.Hex())
		}
		if principal, ok := pp.proxyToVoter[proxy]; ok && principal != voter {
			return fmt.Errorf("%w: %s already proxies for %s", ErrProxyConflict, proxy.Hex(), principal.Hex())
		}
		if _, ok := pp.voterToProxy[proxy]; ok {
			return fmt.Errorf("%w: %s appointed a proxy itself", ErrProxyConflict, proxy.Hex())
		}
		if principal, ok := pp.proxyToVoter[voter]; ok {
			return fmt.Errorf("%w: %s proxies for %s", ErrProxyConflict, voter.Hex(), principal.Hex())
		}
	}
	if old, ok := pp.voterToProxy[voter]; ok {
		delete(pp.proxyToVoter, old)
		delete(pp.voterToProxy, voter)
	}
	if proxy != (common.Address{}) {
		pp.voterToProxy[voter] = proxy
		pp.proxyToVoter[proxy] = voter
	}
	log.Debug("Proxy voter set", "voter", voter, "proxy", proxy)
	return nil
}

// ProxyOf returns the proxy appointed by voter.
func (pp *ProviderPolicy) ProxyOf(voter common.Address) (common.Address, bool) {
	pp.mu.RLock()
	defer pp.mu.RUnlock()

	proxy, ok := pp.voterToProxy[voter]
	return proxy, ok
}

// Maintainer returns the maintainer address.
func (pp *ProviderPolicy) Maintainer() common.Address {
	return pp.maintainer
}

// Principal returns the voter caller is a proxy for, or caller itself.
func (pp *ProviderPolicy) Principal(caller common.Address) common.Address {
	pp.mu.RLock()
	defer pp.mu.RUnlock()

	if voter, ok := pp.proxyToVoter[caller]; ok {
		return voter
	}
	return caller
}

func (pp *ProviderPolicy) CanPropose(caller common.Address, now uint64) bool {
	if caller == pp.maintainer {
		return true
	}
	epoch, _ := pp.registry.CurrentEpoch(now)
	return pp.registry.IsRegistered(pp.Principal(caller), epoch)
}

// CanVote requires the principal to be registered in the proposal's epoch.
func (pp *ProviderPolicy) CanVote(principal common.Address, p *Proposal) bool {
	return pp.registry.IsRegistered(principal, p.SnapshotRef)
}

func (pp *ProviderPolicy) CanCancel(caller, proposer common.Address) bool {
	return caller == proposer || pp.Principal(caller) == proposer
}

func (pp *ProviderPolicy) QuorumBasis(snapshot Snapshot) (*uint256.Int, error) {
	total, _, err := pp.registry.TotalWeight(snapshot.Ref)
	return total, err
}

func (pp *ProviderPolicy) Rounding() Rounding { return RoundDown }

func (pp *ProviderPolicy) ExecutionCapable() bool { return false }

// RegistryVotePower uses registration weights as vote power. The snapshot
// reference is the reward epoch.
type RegistryVotePower struct {
	Registry VoterRegistry
}

// WeightOf implements VotePowerOracle.
func (rv RegistryVotePower) WeightOf(addr common.Address, epoch uint64) (*uint256.Int, error) {
	return rv.Registry.WeightOf(addr, epoch)
}
