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

// Package drift computes, for one strategy at one point in time, how far
// its current holdings sit from its target allocation, asset class by
// asset class. The report is the input both the objective's drift penalty
// and the post-trade drift-band constraint read from.
package drift

import (
	"fmt"
	"sort"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Report computes the DriftReport for a strategy: one row per target asset
// class plus one row for cash, target weights renormalized to sum to 1,
// actual weights left exactly as the holdings imply (never renormalized).
func Report(strategy *oracletypes.Strategy, prices oracletypes.PriceBook) (oracletypes.DriftReport, error) {
	holdings := strategy.Holdings()

	totalValue := strategy.Cash
	for identifier, qty := range holdings {
		price, ok := prices.Get(identifier)
		if !ok {
			return nil, oracletypes.Wrap("drift", oracletypes.ErrInputValidation, fmt.Sprintf("no price for held identifier %q", identifier))
		}
		totalValue += qty * price
	}

	targetSum := strategy.Target.SumWeights()
	if targetSum <= 0 {
		targetSum = 1
	}

	rows := make(oracletypes.DriftReport, 0, len(strategy.Target)+1)
	for _, row := range strategy.Target {
		actualValue := 0.0
		for _, identifier := range row.Identifiers {
			price, _ := prices.Get(identifier)
			actualValue += holdings[identifier] * price
		}
		actualWeight := 0.0
		if totalValue > 0 {
			actualWeight = actualValue / totalValue
		}
		rows = append(rows, oracletypes.DriftRow{
			AssetClass:   row.AssetClass,
			TargetWeight: row.TargetWeight / targetSum,
			ActualWeight: actualWeight,
			Identifiers:  append([]string(nil), row.Identifiers...),
		})
	}

	cashWeight := 0.0
	if totalValue > 0 {
		cashWeight = strategy.Cash / totalValue
	}
	rows = append(rows, oracletypes.DriftRow{
		AssetClass:   oracletypes.CashAssetClass,
		TargetWeight: 0,
		ActualWeight: cashWeight,
		Identifiers:  []string{oracletypes.CashIdentifier},
	})

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AssetClass < rows[j].AssetClass })
	return rows, nil
}

// TotalValue returns the strategy's total market value: cash plus every
// held identifier's quantity times its current price.
func TotalValue(strategy *oracletypes.Strategy, prices oracletypes.PriceBook) (float64, error) {
	total := strategy.Cash
	for identifier, qty := range strategy.Holdings() {
		price, ok := prices.Get(identifier)
		if !ok {
			return 0, oracletypes.Wrap("drift", oracletypes.ErrInputValidation, fmt.Sprintf("no price for held identifier %q", identifier))
		}
		total += qty * price
	}
	return total, nil
}
