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

import "github.com/ethereum/go-ethereum/metrics"

var (
	proposalCreatedMeter  = metrics.NewRegisteredMeter("governance/proposals/created", nil)
	proposalCanceledMeter = metrics.NewRegisteredMeter("governance/proposals/canceled", nil)
	proposalExecutedMeter = metrics.NewRegisteredMeter("governance/proposals/executed", nil)
	executionFailedMeter  = metrics.NewRegisteredMeter("governance/proposals/failed", nil)
	votesCastMeter        = metrics.NewRegisteredMeter("governance/votes/cast", nil)

	membersAddedMeter   = metrics.NewRegisteredMeter("governance/members/added", nil)
	membersRemovedMeter = metrics.NewRegisteredMeter("governance/members/removed", nil)
	membersGauge        = metrics.NewRegisteredGauge("governance/members/count", nil)
)
