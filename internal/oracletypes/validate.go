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
	"math"
)

// ValidateRequest checks cross-cutting invariants a single Strategy cannot
// check on its own: every identifier referenced by a strategy's target or
// lots must have a finite, nonnegative price, and every rate in the tax
// table must be finite.
func ValidateRequest(strategies []Strategy, prices PriceBook, spreads SpreadBook, rates TaxRateTable) error {
	if err := prices.Validate(); err != nil {
		return err
	}
	if err := spreads.Validate(); err != nil {
		return err
	}
	for rate, v := range rates {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Wrap("tax-rates", ErrInputValidation, fmt.Sprintf("%s is not finite", rate))
		}
	}

	seenIDs := make(map[string]bool)
	for _, s := range strategies {
		if seenIDs[s.StrategyID] {
			return Wrap("request", ErrInputValidation, fmt.Sprintf("duplicate strategy_id %q", s.StrategyID))
		}
		seenIDs[s.StrategyID] = true

		if err := s.Validate(); err != nil {
			return err
		}

		for _, row := range s.Target {
			for _, id := range row.Identifiers {
				if id == CashIdentifier {
					continue
				}
				if _, ok := prices.Get(id); !ok {
					return Wrap("request", ErrInputValidation, fmt.Sprintf("%s: no price for target identifier %q", s.StrategyID, id))
				}
			}
		}
		for _, lot := range s.Lots {
			if _, ok := prices.Get(lot.Identifier); !ok {
				return Wrap("request", ErrInputValidation, fmt.Sprintf("%s: no price for held identifier %q", s.StrategyID, lot.Identifier))
			}
		}
	}
	return nil
}
