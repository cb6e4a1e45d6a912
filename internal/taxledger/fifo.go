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

// Package taxledger recomputes the tax impact of a revised allocation
// deterministically: FIFO lot consumption, short/long split, wash-sale loss
// deferral, bracket-based liability, and an immutable checksummed artifact
// (spec.md §4.9).
package taxledger

import (
	"errors"
	"sort"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// ErrInsufficientLots is returned when a sell quantity exceeds the total
// held across every lot of that identifier.
var ErrInsufficientLots = errors.New("taxledger: insufficient lots to cover sale quantity")

// LotSlice is one FIFO-consumed piece of a sale: the slice of one lot that
// was sold to help satisfy a requested sale quantity.
type LotSlice struct {
	LotID             string
	Identifier        string
	Proceeds          float64
	CostBasis         float64
	GainLoss          float64
	IsLongTerm        bool
	QuantitySold      float64
	QuantityRemaining float64
}

// ConsumeFIFO sells quantity shares of identifier out of lots, oldest
// acquired-date first, and returns the per-slice breakdown plus the lot
// book that results (lots fully consumed are dropped, partially consumed
// lots have their quantity and cost basis reduced proportionally, lots of
// other identifiers pass through untouched).
func ConsumeFIFO(lots []oracletypes.TaxLot, identifier string, quantity, price float64, asOf time.Time) ([]LotSlice, []oracletypes.TaxLot, error) {
	candidates := make([]oracletypes.TaxLot, 0)
	others := make([]oracletypes.TaxLot, 0, len(lots))
	for _, l := range lots {
		if l.Identifier == identifier {
			candidates = append(candidates, l)
		} else {
			others = append(others, l)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].AcquiredDate.Before(candidates[j].AcquiredDate)
	})

	remaining := quantity
	slices := make([]LotSlice, 0)
	kept := make([]oracletypes.TaxLot, 0, len(candidates))

	for _, lot := range candidates {
		if remaining <= 1e-9 {
			kept = append(kept, lot)
			continue
		}

		take := lot.Quantity
		if remaining < take {
			take = remaining
		}
		unitCost := lot.UnitCostBasis()
		costBasis := take * unitCost
		proceeds := take * price

		slices = append(slices, LotSlice{
			LotID:             lot.LotID,
			Identifier:        identifier,
			Proceeds:          proceeds,
			CostBasis:         costBasis,
			GainLoss:          proceeds - costBasis,
			IsLongTerm:        lot.IsLongTerm(asOf),
			QuantitySold:      take,
			QuantityRemaining: lot.Quantity - take,
		})

		remaining -= take
		if lot.Quantity-take > 1e-9 {
			lot.Quantity -= take
			lot.CostBasis = lot.Quantity * unitCost
			kept = append(kept, lot)
		}
	}

	if remaining > 1e-9 {
		return nil, nil, ErrInsufficientLots
	}

	kept = append(kept, others...)
	return slices, kept, nil
}
