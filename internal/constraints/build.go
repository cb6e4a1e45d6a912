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

// Package constraints composes the pre-trade and post-trade constraints
// spec.md §4.4 assigns to a strategy's solve, in the fixed order that
// section mandates. Pre-trade constraints pin variable bounds to zero
// before the solve ever runs; post-trade constraints are structural rows
// added to the program.
package constraints

import (
	"fmt"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/solver"
	"github.com/penny-vault/tax-oracle/internal/variables"
	"github.com/penny-vault/tax-oracle/internal/washsale"
)

// Inputs bundles everything the constraint builder needs, so Build's
// signature doesn't grow every time a new constraint reads one more field.
type Inputs struct {
	Strategy    *oracletypes.Strategy
	Settings    oracletypes.StrategySettings
	Vars        *variables.Set
	Prices      oracletypes.PriceBook
	Spreads     oracletypes.SpreadBook
	WashSale    *washsale.Engine
	Drift       oracletypes.DriftReport
	TotalValue  float64
	CurrentDate time.Time
	NoBuy       bool // forced externally (buy-only's inverse sibling, spec §4.4 item 9)
}

// Built is the output: the model with every constraint attached, plus the
// bookkeeping later stages (objective, solver driver) need: the big-M cap
// used per buy column (for the objective's own bound-sensitive terms) and
// the index at which sell columns begin.
type Built struct {
	Model           *solver.Model
	SellColumnStart int
	BuyCap          map[string]float64
}

// Build lays out one strategy's base decision variables, pins the
// pre-trade restrictions, and attaches the post-trade structural rows.
func Build(in Inputs) (*Built, error) {
	vars := in.Vars
	base := vars.NumVars()
	model := solver.NewModel(base)

	buyCap := make(map[string]float64, vars.NumBuys())
	for _, id := range vars.Identifiers() {
		idx, _ := vars.BuyIndex(id)
		price, _ := in.Prices.Get(id)
		model.SetBounds(idx, 0, capForPrice(price, in.TotalValue, in.Settings.MinNotional))
		buyCap[id] = model.Upper[idx]
	}
	for _, lot := range vars.Lots() {
		idx, _ := vars.SellIndex(lot.LotID)
		model.SetBounds(idx, 0, lot.Quantity)
	}

	applyPreTrade(model, in)
	applyCashFloor(model, in)
	applyMinNotional(model, in)
	applyNoSimultaneous(model, in)
	if in.Strategy.Kind.UsesDriftBand() {
		applyDriftBand(model, in)
	}
	if in.Strategy.WithdrawalAmount > 0 {
		applyWithdrawal(model, in)
	}
	if in.NoBuy || in.Strategy.Kind.ForcesNoBuy() {
		applyNoBuy(model, in)
	}

	return &Built{Model: model, SellColumnStart: vars.NumBuys(), BuyCap: buyCap}, nil
}

// capForPrice derives the upper bound placed on a buy variable: the
// teacher's strategies have no hard position-size limit, so the cap is
// just a generous multiple of the strategy's own total value, large enough
// never to bind the economics but finite enough to serve as the min-notional
// and no-simultaneous-buy-sell constraints' big-M.
func capForPrice(price, totalValue, minNotional float64) float64 {
	if price <= 0 {
		return 0
	}
	base := totalValue*10 + minNotional*10
	if base <= 0 {
		base = 1e6
	}
	return base / price
}

// applyPreTrade implements spec.md §4.4 items 1-3.
func applyPreTrade(model *solver.Model, in Inputs) {
	vars := in.Vars

	for _, r := range in.Strategy.Restrictions {
		if r.ForbidsBuy() {
			if idx, ok := vars.BuyIndex(r.Identifier); ok {
				model.SetBounds(idx, 0, 0)
			}
		}
		if r.ForbidsSell() {
			for _, lot := range in.Strategy.LotsFor(r.Identifier) {
				if idx, ok := vars.SellIndex(lot.LotID); ok {
					model.SetBounds(idx, 0, 0)
				}
			}
		}
	}

	if in.Settings.EnforceWashSalePrevention && in.WashSale != nil {
		for _, id := range vars.Identifiers() {
			if in.WashSale.IsBuyRestricted(id) {
				idx, _ := vars.BuyIndex(id)
				model.SetBounds(idx, 0, 0)
			}
		}
		for _, lot := range vars.Lots() {
			if in.WashSale.IsLotSellRestricted(lot.Identifier, lot.LotID) {
				idx, _ := vars.SellIndex(lot.LotID)
				model.SetBounds(idx, 0, 0)
			}
		}
	}

	if in.Settings.HoldingTimeDays > 0 {
		for _, lot := range vars.Lots() {
			if lot.AgeDays(in.CurrentDate) < in.Settings.HoldingTimeDays {
				idx, _ := vars.SellIndex(lot.LotID)
				model.SetBounds(idx, 0, 0)
			}
		}
	}
}

// applyCashFloor implements spec.md §4.4 item 4.
func applyCashFloor(model *solver.Model, in Inputs) {
	row := model.NewRow()
	for _, id := range in.Vars.Identifiers() {
		idx, _ := in.Vars.BuyIndex(id)
		price, _ := in.Prices.Get(id)
		row[idx] = -price * (1 + in.Spreads.Get(id))
	}
	for _, lot := range in.Vars.Lots() {
		idx, _ := in.Vars.SellIndex(lot.LotID)
		price, _ := in.Prices.Get(lot.Identifier)
		row[idx] = price * (1 - in.Spreads.Get(lot.Identifier))
	}
	model.AddGE("cash_floor", row, in.Strategy.MinCash-in.Strategy.Cash+in.Strategy.WithdrawalAmount)
}

// applyWithdrawal implements spec.md §4.4 item 8.
func applyWithdrawal(model *solver.Model, in Inputs) {
	row := model.NewRow()
	for _, lot := range in.Vars.Lots() {
		idx, _ := in.Vars.SellIndex(lot.LotID)
		price, _ := in.Prices.Get(lot.Identifier)
		row[idx] = price * (1 - in.Spreads.Get(lot.Identifier))
	}
	model.AddGE("withdrawal_funded", row, in.Strategy.WithdrawalAmount)
}

// applyNoBuy implements spec.md §4.4 item 9.
func applyNoBuy(model *solver.Model, in Inputs) {
	for _, id := range in.Vars.Identifiers() {
		idx, _ := in.Vars.BuyIndex(id)
		model.SetBounds(idx, 0, 0)
	}
}

// applyMinNotional implements spec.md §4.4 item 5: a binary indicator per
// base variable linking "zero" to "at least min_notional".
func applyMinNotional(model *solver.Model, in Inputs) {
	if in.Settings.MinNotional <= 0 {
		return
	}
	base := in.Vars.NumVars()
	for k := 0; k < base; k++ {
		price := priceOfColumn(in.Vars, in.Prices, k)
		if price <= 0 || model.Upper[k] == 0 {
			continue
		}
		y := model.AddColumn(0, 1, 0, fmt.Sprintf("min_notional_ind_%d", k))
		model.Binary[y] = true

		upperRow := model.NewRow()
		upperRow[k] = 1
		upperRow[y] = -model.Upper[k]
		model.AddLE("min_notional_upper", upperRow, 0)

		lowerRow := model.NewRow()
		lowerRow[k] = price
		lowerRow[y] = -in.Settings.MinNotional
		model.AddGE("min_notional_lower", lowerRow, 0)
	}
}

// applyNoSimultaneous implements spec.md §4.4 item 6: for each identifier
// with both a buy column and at least one sell column, a binary z_i
// prevents the program from buying and selling the same name at once.
func applyNoSimultaneous(model *solver.Model, in Inputs) {
	for _, id := range in.Vars.Identifiers() {
		buyIdx, _ := in.Vars.BuyIndex(id)
		lots := in.Strategy.LotsFor(id)
		if len(lots) == 0 {
			continue
		}
		sellIdxs := make([]int, 0, len(lots))
		sellCap := 0.0
		for _, lot := range lots {
			idx, ok := in.Vars.SellIndex(lot.LotID)
			if !ok {
				continue
			}
			sellIdxs = append(sellIdxs, idx)
			sellCap += model.Upper[idx]
		}
		if len(sellIdxs) == 0 || model.Upper[buyIdx] == 0 {
			continue
		}

		z := model.AddColumn(0, 1, 0, fmt.Sprintf("no_simul_%s", id))
		model.Binary[z] = true

		sellRow := model.NewRow()
		for _, idx := range sellIdxs {
			sellRow[idx] = 1
		}
		sellRow[z] = -sellCap
		model.AddLE("no_simul_sell", sellRow, 0)

		buyRow := model.NewRow()
		buyRow[buyIdx] = 1
		buyRow[z] = model.Upper[buyIdx]
		model.AddLE("no_simul_buy", buyRow, model.Upper[buyIdx])
	}
}

// applyDriftBand implements spec.md §4.4 item 7.
func applyDriftBand(model *solver.Model, in Inputs) {
	rangeMin := in.Settings.Defaulted().RangeMinWeightMultiplier
	rangeMax := in.Settings.Defaulted().RangeMaxWeightMultiplier
	if in.TotalValue <= 0 {
		return
	}

	for _, row := range in.Drift {
		if row.AssetClass == oracletypes.CashAssetClass {
			continue
		}
		coeffs := model.NewRow()
		for _, id := range row.Identifiers {
			price, ok := in.Prices.Get(id)
			if !ok {
				continue
			}
			if idx, ok := in.Vars.BuyIndex(id); ok {
				coeffs[idx] += price / in.TotalValue
			}
			for _, lot := range in.Strategy.LotsFor(id) {
				if idx, ok := in.Vars.SellIndex(lot.LotID); ok {
					coeffs[idx] -= price / in.TotalValue
				}
			}
		}

		lowerRHS := rangeMin*row.TargetWeight - row.ActualWeight
		upperRHS := rangeMax*row.TargetWeight - row.ActualWeight
		model.AddGE(fmt.Sprintf("drift_band_lo_%s", row.AssetClass), coeffs, lowerRHS)
		model.AddLE(fmt.Sprintf("drift_band_hi_%s", row.AssetClass), coeffs, upperRHS)
	}
}

func priceOfColumn(vars *variables.Set, prices oracletypes.PriceBook, idx int) float64 {
	if id, ok := vars.IdentifierAt(idx); ok {
		price, _ := prices.Get(id)
		return price
	}
	if lot, ok := vars.LotAt(idx); ok {
		price, _ := prices.Get(lot.Identifier)
		return price
	}
	return 0
}
