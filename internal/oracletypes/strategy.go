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

import (
	"fmt"
	"sort"
)

// Strategy is one account's tax-aware rebalancing request: a cash position,
// a target allocation, the lots that back it, and the restrictions that
// constrain it. Strategies are solved independently and netted afterward.
type Strategy struct {
	StrategyID       string   `json:"strategy_id"`
	Kind             StrategyKind `json:"kind"`
	Cash             float64  `json:"cash"`
	MinCash          float64  `json:"min_cash"`
	WithdrawalAmount float64  `json:"withdrawal_amount"`
	TradeRounding    int      `json:"trade_rounding"`

	Target       Target             `json:"target"`
	Lots         []TaxLot           `json:"tax_lots"`
	Restrictions []StockRestriction `json:"restrictions"`
	ClosedLots   []ClosedLot        `json:"closed_lots"`

	Factors *FactorModel `json:"factor_model,omitempty"`
}

// Validate checks the invariants spec.md §3 assigns to a Strategy, beyond
// what JSON unmarshaling already guarantees.
func (s *Strategy) Validate() error {
	if !s.Kind.Valid() {
		return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: unknown kind %q", s.StrategyID, s.Kind))
	}
	if s.Cash < 0 {
		return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: negative cash", s.StrategyID))
	}
	if s.MinCash < 0 {
		return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: negative min_cash", s.StrategyID))
	}
	if s.TradeRounding < 0 || s.TradeRounding > 8 {
		return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: trade_rounding %d out of [0,8]", s.StrategyID, s.TradeRounding))
	}
	if sum := s.Target.SumWeights(); sum < 0.999 || sum > 1.001 {
		return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: target weights sum to %.6f, not 1", s.StrategyID, sum))
	}
	seen := make(map[string]bool, len(s.Lots))
	for _, lot := range s.Lots {
		if seen[lot.LotID] {
			return Wrap("strategy", ErrInputValidation, fmt.Sprintf("%s: duplicate lot_id %q", s.StrategyID, lot.LotID))
		}
		seen[lot.LotID] = true
	}
	return nil
}

// Holdings rolls the strategy's lots up to identifier -> total quantity.
func (s *Strategy) Holdings() map[string]float64 {
	totals := make(map[string]float64, len(s.Lots))
	for _, lot := range s.Lots {
		totals[lot.Identifier] += lot.Quantity
	}
	return totals
}

// LotsFor returns the subset of lots for one identifier, oldest first (the
// order spec.md §4 FIFO consumption and §2 lot selection both rely on).
func (s *Strategy) LotsFor(identifier string) []TaxLot {
	out := make([]TaxLot, 0)
	for _, lot := range s.Lots {
		if lot.Identifier == identifier {
			out = append(out, lot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcquiredDate.Before(out[j].AcquiredDate) })
	return out
}
