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

// Package objective composes the weighted penalty terms spec.md §4.5
// assigns to a strategy's solve: tax, piecewise-linear drift, transaction
// spread, factor tracking, cash deployment and a rank penalty for
// non-primary identifiers. Every term adds directly to the shared Model's
// objective row; the piecewise terms also add auxiliary columns.
package objective

import (
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/solver"
	"github.com/penny-vault/tax-oracle/internal/variables"
)

// Inputs mirrors constraints.Inputs — the objective needs the same
// context, plus the tax rate table and the built model to extend.
type Inputs struct {
	Strategy   *oracletypes.Strategy
	Settings   oracletypes.StrategySettings
	Vars       *variables.Set
	Prices     oracletypes.PriceBook
	Spreads    oracletypes.SpreadBook
	Rates      oracletypes.TaxRateTable
	Drift      oracletypes.DriftReport
	TotalValue float64
	CurrentDate time.Time
}

// Builder attaches the objective to a model already constrained by
// internal/constraints, and can later report each term's contribution to a
// solved point.
//
// Several terms (tax, transaction spread, rank penalty) add their
// coefficients directly into the shared model's objective row, and more
// than one term can touch the same column (a sell column carries both a
// tax coefficient and a rank-penalty adjustment). So Components() can't
// recover each term's share from the merged Objective row alone — each
// add* method also records its own contribution in a dedicated
// column->coefficient map here. The piecewise terms (drift, factor) are
// the exception: each gets its own private auxiliary columns that no other
// term touches, so remembering the column indices is enough.
type Builder struct {
	in    Inputs
	model *solver.Model

	taxCoeffs         map[int]float64
	transactionCoeffs map[int]float64
	rankCoeffs        map[int]float64
	driftSegCols      []int
	factorSegCols     []int
	cashDragExcessCol int // -1 when the cash-deployment term wasn't attached

	factorCoeffs map[string][]float64
	factorTarget map[string]float64
}

// Attach composes every term spec.md §4.5 names, with weights already
// adjusted per strategy kind (oracletypes.StrategySettings.AdjustedWeights),
// and returns a Builder that can later compute Components().
func Attach(model *solver.Model, in Inputs) *Builder {
	b := &Builder{
		in:                in,
		model:             model,
		taxCoeffs:         make(map[int]float64),
		transactionCoeffs: make(map[int]float64),
		rankCoeffs:        make(map[int]float64),
		cashDragExcessCol: -1,
	}
	settings := in.Settings.AdjustedWeights(in.Strategy.Kind).Defaulted()
	b.in.Settings = settings

	b.addTaxTerm()
	b.addTransactionSpreadTerm()
	b.addRankPenalty()
	if settings.WeightDrift > 0 {
		b.addDriftTerm()
	}
	if settings.WeightFactorModel > 0 && in.Strategy.Factors != nil {
		b.addFactorTerm()
	}
	if settings.WeightCashDrag > 0 && in.Strategy.WithdrawalAmount == 0 {
		b.addCashDeploymentTerm()
	}
	return b
}

func (b *Builder) addTaxTerm() {
	w := b.in.Settings.WeightTax
	if w == 0 {
		return
	}
	for _, lot := range b.in.Vars.Lots() {
		idx, ok := b.in.Vars.SellIndex(lot.LotID)
		if !ok {
			continue
		}
		price, _ := b.in.Prices.Get(lot.Identifier)
		gainType := oracletypes.ShortTerm
		if lot.IsLongTerm(b.in.CurrentDate) {
			gainType = oracletypes.LongTerm
		}
		rate := b.in.Rates.EffectiveRate(gainType)
		unitCost := lot.UnitCostBasis()
		gainPerShare := price - unitCost

		var perShare float64
		switch {
		case gainPerShare >= 0:
			perShare = rate * gainPerShare
		case b.in.Settings.ShouldTLH:
			lossMagnitude := -gainPerShare
			thresholdAmt := b.in.Settings.TLHMinLossThreshold * unitCost
			bonus := 0.0
			if lossMagnitude > thresholdAmt {
				bonus = lossMagnitude - thresholdAmt
			}
			perShare = rate*gainPerShare - rate*bonus
		default:
			perShare = 0
		}
		contribution := w * perShare
		b.model.Objective[idx] += contribution
		b.taxCoeffs[idx] += contribution
	}
}

func (b *Builder) addTransactionSpreadTerm() {
	w := b.in.Settings.WeightTransaction
	if w == 0 {
		return
	}
	for _, id := range b.in.Vars.Identifiers() {
		idx, _ := b.in.Vars.BuyIndex(id)
		price, _ := b.in.Prices.Get(id)
		contribution := w * price * b.in.Spreads.Get(id)
		b.model.Objective[idx] += contribution
		b.transactionCoeffs[idx] += contribution
	}
	for _, lot := range b.in.Vars.Lots() {
		idx, _ := b.in.Vars.SellIndex(lot.LotID)
		price, _ := b.in.Prices.Get(lot.Identifier)
		contribution := w * price * b.in.Spreads.Get(lot.Identifier)
		b.model.Objective[idx] += contribution
		b.transactionCoeffs[idx] += contribution
	}
}

func (b *Builder) addRankPenalty() {
	factor := b.in.Settings.RankPenaltyFactor
	if factor == 0 {
		return
	}
	for _, row := range b.in.Strategy.Target {
		for rank, id := range row.Identifiers {
			if rank == 0 {
				continue // primary: no penalty
			}
			penalty := float64(rank) * factor
			if idx, ok := b.in.Vars.BuyIndex(id); ok {
				b.model.Objective[idx] += penalty
				b.rankCoeffs[idx] += penalty
			}
			for _, lot := range b.in.Strategy.LotsFor(id) {
				if idx, ok := b.in.Vars.SellIndex(lot.LotID); ok {
					b.model.Objective[idx] -= penalty
					b.rankCoeffs[idx] -= penalty
				}
			}
		}
	}
}

func (b *Builder) addDriftTerm() {
	if b.in.TotalValue <= 0 {
		return
	}
	mean := b.in.Drift.MeanTargetWeight()
	for _, row := range b.in.Drift {
		if row.AssetClass == oracletypes.CashAssetClass {
			continue
		}
		coeffs := b.model.NewRow()
		for _, id := range row.Identifiers {
			price, ok := b.in.Prices.Get(id)
			if !ok {
				continue
			}
			if idx, ok := b.in.Vars.BuyIndex(id); ok {
				coeffs[idx] += price / b.in.TotalValue
			}
			for _, lot := range b.in.Strategy.LotsFor(id) {
				if idx, ok := b.in.Vars.SellIndex(lot.LotID); ok {
					coeffs[idx] -= price / b.in.TotalValue
				}
			}
		}
		offset := row.ActualWeight - row.TargetWeight
		segCols := addPiecewiseDeviation(b.model, coeffs, offset, mean, b.in.Settings.WeightDrift, fmt.Sprintf("drift_%s", row.AssetClass))
		b.driftSegCols = append(b.driftSegCols, segCols...)
	}
}

func (b *Builder) addFactorTerm() {
	factors := b.in.Strategy.Factors.Factors()
	if len(factors) == 0 || b.in.TotalValue <= 0 {
		return
	}
	for _, factor := range factors {
		coeffs := b.model.NewRow()
		for _, id := range b.in.Vars.Identifiers() {
			price, ok := b.in.Prices.Get(id)
			if !ok {
				continue
			}
			loading := loadingFor(b.in.Strategy.Factors.ExposureOf(id), factor)
			if loading == 0 {
				continue
			}
			if idx, ok := b.in.Vars.BuyIndex(id); ok {
				coeffs[idx] += loading * price / b.in.TotalValue
			}
		}
		for _, lot := range b.in.Vars.Lots() {
			price, ok := b.in.Prices.Get(lot.Identifier)
			if !ok {
				continue
			}
			loading := loadingFor(b.in.Strategy.Factors.ExposureOf(lot.Identifier), factor)
			if loading == 0 {
				continue
			}
			if idx, ok := b.in.Vars.SellIndex(lot.LotID); ok {
				coeffs[idx] -= loading * price / b.in.TotalValue
			}
		}
		target := b.in.Strategy.Factors.Benchmark[factor]
		segCols := addPiecewiseDeviation(b.model, coeffs, -target, math.Abs(target), b.in.Settings.WeightFactorModel, fmt.Sprintf("factor_%s", factor))
		b.factorSegCols = append(b.factorSegCols, segCols...)

		if b.factorCoeffs == nil {
			b.factorCoeffs = make(map[string][]float64)
			b.factorTarget = make(map[string]float64)
		}
		b.factorCoeffs[factor] = coeffs
		b.factorTarget[factor] = target
	}
}

func loadingFor(exposures []oracletypes.FactorExposure, factor string) float64 {
	for _, e := range exposures {
		if e.Factor == factor {
			return e.Loading
		}
	}
	return 0
}

func (b *Builder) addCashDeploymentTerm() {
	row := b.model.NewRow()
	for _, id := range b.in.Vars.Identifiers() {
		idx, _ := b.in.Vars.BuyIndex(id)
		price, _ := b.in.Prices.Get(id)
		row[idx] = -price
	}
	for _, lot := range b.in.Vars.Lots() {
		idx, _ := b.in.Vars.SellIndex(lot.LotID)
		price, _ := b.in.Prices.Get(lot.Identifier)
		row[idx] = price
	}
	// cash_after = Cash + row.x; penalize the excess above min_cash:
	// excess >= cash_after - min_cash  <=>  row.x - excess <= min_cash - Cash.
	excess := b.model.AddColumn(0, math.Inf(1), b.in.Settings.WeightCashDrag, "cash_drag_excess")
	excessRow := append(append([]float64(nil), row...), 0)
	excessRow[excess] = -1
	b.model.AddLE("cash_drag_excess", excessRow, b.in.Strategy.MinCash-b.in.Strategy.Cash)
	b.cashDragExcessCol = excess
}
