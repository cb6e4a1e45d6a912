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

import "github.com/rs/zerolog"

// MarshalZerologObject lets a TaxLot be logged directly with log.Info().Object(...).
func (l *TaxLot) MarshalZerologObject(e *zerolog.Event) {
	e.Str("lot_id", l.LotID).
		Str("identifier", l.Identifier).
		Float64("quantity", l.Quantity).
		Float64("cost_basis", l.CostBasis).
		Time("acquired_date", l.AcquiredDate)
}

// MarshalZerologObject lets a Trade be logged directly.
func (t *Trade) MarshalZerologObject(e *zerolog.Event) {
	e.Str("source_id", t.SourceID).
		Str("strategy_id", t.StrategyID).
		Str("identifier", t.Identifier).
		Str("side", string(t.Side)).
		Float64("quantity", t.Quantity).
		Float64("price", t.Price).
		Float64("transaction_cost", t.TransactionCost)
	if t.LotID != "" {
		e.Str("tax_lot_id", t.LotID)
	}
	if t.RealizedGain != nil {
		e.Float64("realized_gain", *t.RealizedGain)
	}
	if t.IsTaxLossHarvest {
		e.Bool("is_tlh", true)
	}
}

// MarshalZerologArray lets a []Trade slice be logged with log.Info().Array(...).
type TradeLogArray []Trade

func (a TradeLogArray) MarshalZerologArray(arr *zerolog.Array) {
	for i := range a {
		arr.Object(&a[i])
	}
}

// MarshalZerologObject lets a DriftRow be logged directly.
func (d DriftRow) MarshalZerologObject(e *zerolog.Event) {
	e.Str("asset_class", d.AssetClass).
		Float64("target_weight", d.TargetWeight).
		Float64("actual_weight", d.ActualWeight)
}

// MarshalZerologObject lets a TaxArtifact be logged directly, without the
// full trade list (callers that want trades should log them separately).
func (a *TaxArtifact) MarshalZerologObject(e *zerolog.Event) {
	e.Str("artifact_id", a.ArtifactID).
		Str("allocation_id", a.AllocationID).
		Time("generated_at", a.GeneratedAt).
		Int("trade_count", len(a.Trades)).
		Float64("realized_gain", a.RealizedGains.Total).
		Float64("tax_liability", a.TaxLiability.Total).
		Str("checksum", a.Checksum)
}
