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

// Package tradesynth translates a solved variable assignment into
// lot-level buy/sell trades (spec.md §4.7) and the post-trade strategy
// snapshot those trades imply.
package tradesynth

import (
	"math"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/variables"
)

// Inputs bundles everything Synthesize needs to turn a solved point into
// trades against one strategy.
type Inputs struct {
	Strategy    *oracletypes.Strategy
	Vars        *variables.Set
	Prices      oracletypes.PriceBook
	Spreads     oracletypes.SpreadBook
	Settings    oracletypes.StrategySettings
	CurrentDate time.Time
}

// Result is the synthesized trade list plus the post-trade strategy
// snapshot those trades would produce if applied to the lot book.
type Result struct {
	Trades       []oracletypes.Trade
	PostStrategy *oracletypes.Strategy
}

// Synthesize rounds x (a solved point in in.Vars' combined column space) to
// in.Strategy.TradeRounding decimals, drops zero-quantity variables, and
// emits one Trade per surviving column plus the resulting lot book.
func Synthesize(x []float64, in Inputs) Result {
	decimals := in.Strategy.TradeRounding
	trades := make([]oracletypes.Trade, 0)

	for _, id := range in.Vars.Identifiers() {
		idx, _ := in.Vars.BuyIndex(id)
		if idx >= len(x) {
			continue
		}
		qty := roundTo(x[idx], decimals)
		if qty <= 0 {
			continue
		}
		price, _ := in.Prices.Get(id)
		spread := in.Spreads.Get(id)
		trades = append(trades, oracletypes.Trade{
			SourceID:        oracletypes.SourceID(in.Strategy.StrategyID, oracletypes.Buy, id, "", qty, price),
			StrategyID:      in.Strategy.StrategyID,
			Identifier:      id,
			Side:            oracletypes.Buy,
			Quantity:        qty,
			Price:           price,
			TransactionCost: qty * price * spread,
		})
	}

	for _, lot := range in.Vars.Lots() {
		idx, _ := in.Vars.SellIndex(lot.LotID)
		if idx >= len(x) {
			continue
		}
		qty := roundTo(x[idx], decimals)
		if qty <= 0 {
			continue
		}
		price, _ := in.Prices.Get(lot.Identifier)
		spread := in.Spreads.Get(lot.Identifier)
		unitCost := lot.UnitCostBasis()
		realizedGain := qty * (price - unitCost)
		costBasisConsumed := qty * unitCost

		gainType := oracletypes.ShortTerm
		if lot.IsLongTerm(in.CurrentDate) {
			gainType = oracletypes.LongTerm
		}

		isTLH := in.Settings.ShouldTLH
		if gainType == oracletypes.ShortTerm && realizedGain <= -in.Settings.TLHMinLossThreshold*costBasisConsumed {
			isTLH = true
		}

		rg := realizedGain
		gt := gainType
		trades = append(trades, oracletypes.Trade{
			SourceID:         oracletypes.SourceID(in.Strategy.StrategyID, oracletypes.Sell, lot.Identifier, lot.LotID, qty, price),
			StrategyID:       in.Strategy.StrategyID,
			LotID:            lot.LotID,
			Identifier:       lot.Identifier,
			Side:             oracletypes.Sell,
			Quantity:         qty,
			Price:            price,
			RealizedGain:     &rg,
			GainType:         &gt,
			TransactionCost:  qty * price * spread,
			IsTaxLossHarvest: isTLH,
		})
	}

	return Result{
		Trades:       trades,
		PostStrategy: applyTrades(in.Strategy, trades, in.CurrentDate),
	}
}

// applyTrades deep-copies strategy's lot book and applies trades to it:
// sells reduce the matching lot's quantity (each sell already targets a
// specific lot_id, so no FIFO resolution is needed here — that happens
// later, and separately, in the tax ledger); buys append a new lot
// acquired on currentDate.
func applyTrades(strategy *oracletypes.Strategy, trades []oracletypes.Trade, currentDate time.Time) *oracletypes.Strategy {
	post := *strategy
	post.Lots = append([]oracletypes.TaxLot(nil), strategy.Lots...)

	byLotID := make(map[string]int, len(post.Lots))
	for i, lot := range post.Lots {
		byLotID[lot.LotID] = i
	}

	accountID := ""
	if len(post.Lots) > 0 {
		accountID = post.Lots[0].AccountID
	}

	for _, t := range trades {
		switch t.Side {
		case oracletypes.Sell:
			i, ok := byLotID[t.LotID]
			if !ok {
				continue
			}
			unitCost := post.Lots[i].UnitCostBasis()
			post.Lots[i].Quantity -= t.Quantity
			post.Lots[i].CostBasis = post.Lots[i].Quantity * unitCost
		case oracletypes.Buy:
			post.Lots = append(post.Lots, oracletypes.TaxLot{
				LotID:        t.SourceID,
				Identifier:   t.Identifier,
				AccountID:    accountID,
				Quantity:     t.Quantity,
				CostBasis:    t.Notional(),
				AcquiredDate: currentDate,
				StrategyID:   strategy.StrategyID,
			})
		}
	}

	kept := post.Lots[:0]
	for _, lot := range post.Lots {
		if lot.Quantity > 0 {
			kept = append(kept, lot)
		}
	}
	post.Lots = kept
	return &post
}

// roundTo rounds v to decimals places, the once-after-extraction rounding
// spec.md §4.6's numerical policy mandates.
func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
