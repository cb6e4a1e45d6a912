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

package oracletypes

// StrategySettings carries the per-strategy knobs from the request's
// "settings.strategies.<id>" object: objective weights, solve thresholds,
// and constraint parameters.
type StrategySettings struct {
	WeightTax         float64 `json:"weight_tax"`
	WeightDrift       float64 `json:"weight_drift"`
	WeightTransaction float64 `json:"weight_transaction"`
	WeightFactorModel float64 `json:"weight_factor_model"`
	WeightCashDrag    float64 `json:"weight_cash_drag"`

	RebalanceThreshold float64 `json:"rebalance_threshold"`
	BuyThreshold       float64 `json:"buy_threshold"`

	HoldingTimeDays int     `json:"holding_time_days"`
	MinNotional     float64 `json:"min_notional"`

	RangeMinWeightMultiplier float64 `json:"range_min_weight_multiplier"`
	RangeMaxWeightMultiplier float64 `json:"range_max_weight_multiplier"`

	RankPenaltyFactor float64 `json:"rank_penalty_factor"`

	EnforceWashSalePrevention bool `json:"enforce_wash_sale_prevention"`

	ShouldTLH           bool    `json:"should_tlh"`
	TLHMinLossThreshold float64 `json:"tlh_min_loss_threshold"`
}

// Defaulted returns a copy of s with the spec-mandated defaults filled in
// for any zero-valued field that has one (range multipliers default to 0.5
// and 2.0; everything else's zero value is already its sensible default).
func (s StrategySettings) Defaulted() StrategySettings {
	if s.RangeMinWeightMultiplier == 0 {
		s.RangeMinWeightMultiplier = 0.5
	}
	if s.RangeMaxWeightMultiplier == 0 {
		s.RangeMaxWeightMultiplier = 2.0
	}
	return s
}

// AdjustedWeights applies the strategy-kind weight policy spec.md §4.5
// describes: HOLD zeros everything, LIQUIDATE zeros drift/factor, PAIRS_TLH
// emphasizes tax/drift, DIRECT_INDEX activates the factor term, TAX_AWARE
// is left as configured.
func (s StrategySettings) AdjustedWeights(kind StrategyKind) StrategySettings {
	switch kind {
	case Hold:
		s.WeightTax, s.WeightDrift, s.WeightTransaction, s.WeightFactorModel, s.WeightCashDrag = 0, 0, 0, 0, 0
	case Liquidate:
		s.WeightDrift, s.WeightFactorModel = 0, 0
	case PairsTLH:
		if s.WeightTax == 0 {
			s.WeightTax = 1.0
		}
		if s.WeightDrift == 0 {
			s.WeightDrift = 1.0
		}
		s.WeightFactorModel = 0
	case DirectIndex:
		if s.WeightFactorModel == 0 {
			s.WeightFactorModel = 1.0
		}
	case TaxAware:
		// Balanced default: whatever the caller configured stands.
	}
	return s
}
