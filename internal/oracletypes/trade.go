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

// Trade is one synthesized order: a buy (identifier-level, post-netting) or
// a sell (always lot-specific). A Source ID ties it back to the originating
// strategy and lot for the tax ledger's reconciliation pass.
type Trade struct {
	SourceID   string   `json:"source_id"`
	StrategyID string   `json:"strategy_id"`
	LotID      string   `json:"tax_lot_id,omitempty"`
	Identifier string   `json:"identifier"`
	Side       TradeSide `json:"side"`
	Quantity   float64  `json:"quantity"`
	Price      float64  `json:"price"`

	RealizedGain     *float64  `json:"realized_gain,omitempty"`
	GainType         *GainType `json:"gain_type,omitempty"`
	TransactionCost  float64   `json:"transaction_cost"`
	IsTaxLossHarvest bool      `json:"is_tlh,omitempty"`
}

// Notional returns quantity * price, the trade's gross dollar amount.
func (t *Trade) Notional() float64 { return t.Quantity * t.Price }

// IsSell reports whether this trade disposes of a lot.
func (t *Trade) IsSell() bool { return t.Side == Sell }
