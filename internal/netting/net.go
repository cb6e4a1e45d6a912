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

// Package netting combines per-strategy buy trades of the same identifier
// into one account-level order (spec.md §4.8), while leaving sells alone:
// every sell already targets a specific tax lot and must execute as-is.
package netting

import (
	"math"
	"sort"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Rounding maps a strategy_id to the trade_rounding it was solved with, the
// input Net needs to pick the coarsest (fewest-decimal) rounding shared by
// every strategy contributing a buy of a given identifier.
type Rounding map[string]int

// Net groups trades by identifier: buy quantities are summed and rounded to
// the minimum trade_rounding among the strategies that contributed a buy of
// that identifier; sells pass through untouched, in their original order.
//
// Associativity (net(A∪B) == net(net(A), net(B))) holds exactly when every
// contributing strategy shares the same trade_rounding and the incoming buy
// quantities are already rounded to it, as tradesynth emits them — the
// common case in practice. Quantities that are not yet on that rounding
// grid can round differently when summed before or after rounding. When strategies disagree, summing trades already rounded by
// tradesynth at their own strategy's precision and then re-rounding at the
// coarser shared minimum can differ from rounding the cross-strategy sum
// directly by less than one unit in the last rounded place; this module
// accepts that bound rather than re-deriving unrounded per-strategy
// quantities, which would require re-threading the solver's raw x vector
// through this stage.
func Net(trades []oracletypes.Trade, rounding Rounding) []oracletypes.Trade {
	type buyAccum struct {
		identifier      string
		quantity        float64
		notional        float64
		transactionCost float64
		minRounding     int
		haveRounding    bool
		sourceIDs       []string
	}

	buys := make(map[string]*buyAccum)
	order := make([]string, 0)
	out := make([]oracletypes.Trade, 0, len(trades))

	for _, t := range trades {
		if t.Side != oracletypes.Buy {
			out = append(out, t)
			continue
		}

		acc, ok := buys[t.Identifier]
		if !ok {
			acc = &buyAccum{identifier: t.Identifier}
			buys[t.Identifier] = acc
			order = append(order, t.Identifier)
		}
		acc.quantity += t.Quantity
		acc.notional += t.Notional()
		acc.transactionCost += t.TransactionCost
		acc.sourceIDs = append(acc.sourceIDs, t.SourceID)

		if r, ok := rounding[t.StrategyID]; ok {
			if !acc.haveRounding || r < acc.minRounding {
				acc.minRounding = r
				acc.haveRounding = true
			}
		}
	}

	sort.Strings(order)
	for _, id := range order {
		acc := buys[id]
		decimals := 0
		if acc.haveRounding {
			decimals = acc.minRounding
		}
		qty := roundTo(acc.quantity, decimals)
		if qty <= 0 {
			continue
		}

		price := 0.0
		if acc.quantity != 0 {
			price = acc.notional / acc.quantity
		}

		sort.Strings(acc.sourceIDs)
		merged := oracletypes.SourceID("netted", oracletypes.Buy, id, "", qty, price)
		out = append(out, oracletypes.Trade{
			SourceID:        merged,
			Identifier:      id,
			Side:            oracletypes.Buy,
			Quantity:        qty,
			Price:           price,
			TransactionCost: acc.transactionCost,
		})
	}

	return out
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
