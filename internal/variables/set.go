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

// Package variables builds the dense, integer-indexed decision variable
// layout one strategy's solve runs against: a buy variable per tradeable
// identifier and a sell variable per tax lot. The teacher's equivalent
// structures keyed maps by string; here every downstream package (solver,
// constraints, objective) addresses a variable by its array index, not by
// name, so the simplex tableau can be built directly from gonum matrices.
package variables

import (
	"sort"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Kind distinguishes a buy column from a sell column in the combined index
// space (buys occupy [0, NumBuys), sells occupy [NumBuys, NumBuys+NumSells)).
type Kind int

const (
	BuyVar Kind = iota
	SellVar
)

// Set is the full decision-variable layout for one strategy's solve.
type Set struct {
	identifiers []string          // buy columns, index == position
	lots        []oracletypes.TaxLot // sell columns, index == position
	buyIndex    map[string]int
	lotIndex    map[string]int
}

// Build derives a Set from a strategy: one buy column per identifier
// referenced anywhere in its target (sorted for determinism), one sell
// column per tax lot held (in the strategy's own lot order).
func Build(strategy *oracletypes.Strategy) *Set {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, row := range strategy.Target {
		for _, id := range row.Identifiers {
			if id == oracletypes.CashIdentifier || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	// Identifiers held but absent from the target get no buy column (pure
	// liquidation candidates are only ever sold).
	sort.Strings(ids)

	lots := append([]oracletypes.TaxLot(nil), strategy.Lots...)

	s := &Set{
		identifiers: ids,
		lots:        lots,
		buyIndex:    make(map[string]int, len(ids)),
		lotIndex:    make(map[string]int, len(lots)),
	}
	for i, id := range ids {
		s.buyIndex[id] = i
	}
	for i, lot := range lots {
		s.lotIndex[lot.LotID] = i
	}
	return s
}

// NumBuys is the number of buy columns.
func (s *Set) NumBuys() int { return len(s.identifiers) }

// NumSells is the number of sell columns.
func (s *Set) NumSells() int { return len(s.lots) }

// NumVars is the total column count: NumBuys + NumSells.
func (s *Set) NumVars() int { return len(s.identifiers) + len(s.lots) }

// BuyIndex returns the column index for identifier's buy variable, or
// (-1, false) if it has no buy column.
func (s *Set) BuyIndex(identifier string) (int, bool) {
	idx, ok := s.buyIndex[identifier]
	if !ok {
		return -1, false
	}
	return idx, true
}

// SellIndex returns the column index, in the combined space, for lotID's
// sell variable, or (-1, false) if the lot isn't tracked.
func (s *Set) SellIndex(lotID string) (int, bool) {
	idx, ok := s.lotIndex[lotID]
	if !ok {
		return -1, false
	}
	return len(s.identifiers) + idx, true
}

// Identifiers returns the buy-column identifiers, in column order.
func (s *Set) Identifiers() []string { return s.identifiers }

// Lots returns the sell-column lots, in column order.
func (s *Set) Lots() []oracletypes.TaxLot { return s.lots }

// LotAt returns the lot backing the sell column at combined index idx, and
// whether idx is in fact a sell column.
func (s *Set) LotAt(idx int) (oracletypes.TaxLot, bool) {
	i := idx - len(s.identifiers)
	if i < 0 || i >= len(s.lots) {
		return oracletypes.TaxLot{}, false
	}
	return s.lots[i], true
}

// IdentifierAt returns the identifier backing the buy column at combined
// index idx, and whether idx is in fact a buy column.
func (s *Set) IdentifierAt(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.identifiers) {
		return "", false
	}
	return s.identifiers[idx], true
}

// KindAt classifies combined index idx as a buy or sell column.
func (s *Set) KindAt(idx int) Kind {
	if idx < len(s.identifiers) {
		return BuyVar
	}
	return SellVar
}
