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

package solver

import (
	"math"
	"time"

	"github.com/rs/zerolog"
)

// CaseType names why a strategy's solve ended the way it did, the same
// enumeration spec.md's explanation_context.case_type carries, so the
// account façade never has to reconstruct a reason from raw numbers.
type CaseType string

const (
	CaseRebalanced             CaseType = "rebalanced"
	CaseBuyOnly                CaseType = "buy_only"
	CaseBuyOnlyFailed          CaseType = "buy_only_failed"
	CaseBuyOnlyBelowThreshold  CaseType = "buy_only_below_threshold"
	CaseOptimizationFailed     CaseType = "optimization_failed"
	CaseHoldStrategy           CaseType = "hold_strategy"
	CaseEmptyPortfolio         CaseType = "empty_portfolio"
	CaseNoTradeFailed          CaseType = "no_trade_failed"
	CaseNotEnoughCashToBuyOnly CaseType = "not_enough_cash_to_buy_only"
)

// Thresholds carries the cutoffs the two-pass decision compares
// improvement against.
type Thresholds struct {
	RebalanceThreshold float64
	BuyThreshold        float64
	MinCash             float64
	MinNotional         float64
}

// Outcome is the terminal state of BaselineComputed -> Rebalanced{...} |
// RebalanceFailed -> BuyOnlyAttempted{...} | BuyOnlyFailed -> NoTrade{case}
// from spec.md §9 Design Notes, made concrete.
type Outcome struct {
	Case                 CaseType
	Solution             Solution
	BaselineValue        float64
	RebalanceImprovement float64
	BuyOnlyImprovement   float64
	UsedBuyOnly          bool
}

// Tracer, when non-nil with Trace set and a Log, receives one Debug event
// per solve phase (baseline, rebalance, buy-only) with its elapsed duration
// — the timing-breakdown supplemented feature.
type Tracer struct {
	Log   *zerolog.Logger
	Trace bool
}

func (t *Tracer) mark(phase string, start time.Time) {
	if t == nil || !t.Trace || t.Log == nil {
		return
	}
	t.Log.Debug().Str("phase", phase).Dur("elapsed", time.Since(start)).Msg("solve phase complete")
}

// RunTwoPass implements spec.md §4.6's baseline -> rebalance -> buy-only
// decision. full is the fully constrained MILP; sellColumnStart is the
// index at which sell columns begin in full's variable layout (everything
// before it is a buy column) — the split the buy-only variant pins to zero.
func RunTwoPass(full *Model, sellColumnStart int, availableCash float64, th Thresholds, tr *Tracer) Outcome {
	start := time.Now()
	baselineModel := full.clone()
	for i := 0; i < baselineModel.NumVars; i++ {
		baselineModel.SetBounds(i, 0, 0)
	}
	baseline := Solve(baselineModel)
	tr.mark("baseline solve", start)

	baselineValue := baseline.Objective
	if baseline.Status != StatusOptimal {
		baselineValue = 0
	}

	start = time.Now()
	rebalance := Solve(full)
	tr.mark("rebalance solve", start)

	rebalanceOK := rebalance.Status == StatusOptimal
	rebalanceImprovement := math.Inf(-1)
	if rebalanceOK {
		rebalanceImprovement = baselineValue - rebalance.Objective
	}

	if rebalanceOK && rebalanceImprovement >= th.RebalanceThreshold {
		return Outcome{
			Case:                 CaseRebalanced,
			Solution:             rebalance,
			BaselineValue:        baselineValue,
			RebalanceImprovement: rebalanceImprovement,
		}
	}

	if availableCash < th.MinCash+th.MinNotional {
		return Outcome{
			Case:                 CaseNotEnoughCashToBuyOnly,
			BaselineValue:        baselineValue,
			RebalanceImprovement: rebalanceImprovement,
		}
	}

	buyOnlyModel := full.clone()
	for i := sellColumnStart; i < buyOnlyModel.NumVars; i++ {
		buyOnlyModel.SetBounds(i, 0, 0)
	}
	start = time.Now()
	buyOnly := Solve(buyOnlyModel)
	tr.mark("buy-only solve", start)

	if buyOnly.Status != StatusOptimal {
		caseType := CaseBuyOnlyFailed
		if !rebalanceOK {
			caseType = CaseOptimizationFailed
		}
		return Outcome{
			Case:                 caseType,
			BaselineValue:        baselineValue,
			RebalanceImprovement: rebalanceImprovement,
		}
	}

	buyOnlyImprovement := baselineValue - buyOnly.Objective
	if buyOnlyImprovement >= th.BuyThreshold {
		return Outcome{
			Case:                 CaseBuyOnly,
			Solution:             buyOnly,
			BaselineValue:        baselineValue,
			RebalanceImprovement: rebalanceImprovement,
			BuyOnlyImprovement:   buyOnlyImprovement,
			UsedBuyOnly:          true,
		}
	}

	return Outcome{
		Case:                 CaseBuyOnlyBelowThreshold,
		BaselineValue:        baselineValue,
		RebalanceImprovement: rebalanceImprovement,
		BuyOnlyImprovement:   buyOnlyImprovement,
	}
}
