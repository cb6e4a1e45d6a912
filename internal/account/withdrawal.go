// Copyright 2021-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package account

import (
	"fmt"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// MaxWithdrawalSettings bounds the binary search ComputeMaxWithdrawal runs
// for one strategy (spec.md §6's max_withdrawal_amount_settings, Supplemented
// Feature 1).
type MaxWithdrawalSettings struct {
	StrategyID string
	MinAmount  float64
	MaxAmount  float64
	// Tolerance is the binary search's stopping width in dollars; 0 uses a
	// one-dollar default.
	Tolerance float64
}

// MaxWithdrawalResult is one entry of spec.md §6's
// max_withdrawal_amount_results.
type MaxWithdrawalResult struct {
	StrategyID    string
	MaxWithdrawal float64
	Trades        []oracletypes.Trade
	Feasible      bool
}

// ComputeMaxWithdrawal is spec.md §6 entry point (ii): binary-searches the
// largest withdrawal_amount for strategy cfg.StrategyID for which the
// rebalance-or-buy-only solve remains feasible and clears min_cash,
// returning the trades that fund it. Every probe runs the full
// ComputeOptimalTrades pipeline (so the result reflects the same netting
// and thresholds a real run would use) but never persists a tax artifact.
func ComputeMaxWithdrawal(req Request, cfg MaxWithdrawalSettings) (MaxWithdrawalResult, error) {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = 1.0
	}
	lo, hi := cfg.MinAmount, cfg.MaxAmount
	if hi < lo {
		return MaxWithdrawalResult{StrategyID: cfg.StrategyID}, fmt.Errorf("account: max withdrawal search range invalid: [%v, %v]", lo, hi)
	}

	probe := func(amount float64) (bool, []oracletypes.Trade, error) {
		trial := withWithdrawalAmount(req, cfg.StrategyID, amount)
		resp, err := ComputeOptimalTrades(trial)
		if err != nil {
			return false, nil, err
		}
		result, ok := resp.Results[cfg.StrategyID]
		if !ok {
			return false, nil, nil
		}
		return result.ShouldTrade, result.Trades, nil
	}

	loFeasible, loTrades, err := probe(lo)
	if err != nil {
		return MaxWithdrawalResult{}, err
	}
	if !loFeasible {
		return MaxWithdrawalResult{StrategyID: cfg.StrategyID, MaxWithdrawal: 0, Feasible: false}, nil
	}

	best := lo
	bestTrades := loTrades
	for hi-lo > tol {
		mid := lo + (hi-lo)/2
		ok, trades, err := probe(mid)
		if err != nil {
			return MaxWithdrawalResult{}, err
		}
		if ok {
			lo = mid
			best = mid
			bestTrades = trades
		} else {
			hi = mid
		}
	}

	return MaxWithdrawalResult{
		StrategyID:    cfg.StrategyID,
		MaxWithdrawal: best,
		Trades:        bestTrades,
		Feasible:      true,
	}, nil
}

// withWithdrawalAmount returns a copy of req with strategyID's
// withdrawal_amount set to amount and persistence disabled (probing runs
// never write a tax artifact).
func withWithdrawalAmount(req Request, strategyID string, amount float64) Request {
	out := req
	out.Strategies = make([]StrategyInput, len(req.Strategies))
	copy(out.Strategies, req.Strategies)
	for i, in := range out.Strategies {
		if in.Strategy.StrategyID == strategyID {
			strat := in.Strategy
			strat.WithdrawalAmount = amount
			in.Strategy = strat
			out.Strategies[i] = in
		}
	}
	out.Store = nil
	return out
}
