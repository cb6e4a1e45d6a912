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

package objective

import (
	"math"

	"github.com/penny-vault/tax-oracle/internal/solver"
	"github.com/rs/zerolog/log"
)

// selfCheckTolerance bounds how far the sum of reported components may
// drift from the model's own objective value before it's worth a warning.
const selfCheckTolerance = 1e-6

// Components re-derives each term's dollar-equivalent contribution to a
// solved point, mirroring the Python original's extract_component_values
// self-check: the sum of components should equal the objective value to
// within selfCheckTolerance.
func (b *Builder) Components(x []float64) map[string]float64 {
	out := map[string]float64{
		"tax":             dot(b.taxCoeffs, x),
		"transaction":     dot(b.transactionCoeffs, x),
		"rank_penalty":    dot(b.rankCoeffs, x),
		"drift":           dotCols(b.model, b.driftSegCols, x),
		"factor":          dotCols(b.model, b.factorSegCols, x),
		"cash_deployment": dotCol(b.model, b.cashDragExcessCol, x),
	}

	sum := 0.0
	for _, v := range out {
		sum += v
	}

	objective := 0.0
	for i, c := range b.model.Objective {
		if i < len(x) {
			objective += c * x[i]
		}
	}

	if math.Abs(sum-objective) > selfCheckTolerance {
		log.Warn().
			Float64("components_sum", sum).
			Float64("objective", objective).
			Str("strategy_id", b.in.Strategy.StrategyID).
			Msg("objective components do not reconcile with solved objective value")
	}
	return out
}

// FactorExposures reports the resulting post-trade exposure for each factor
// the strategy tracks, for the trade_summary.factor_model field: the
// benchmark target plus the trade's net effect on it.
func (b *Builder) FactorExposures(x []float64) map[string]float64 {
	if len(b.factorCoeffs) == 0 {
		return nil
	}
	out := make(map[string]float64, len(b.factorCoeffs))
	for factor, coeffs := range b.factorCoeffs {
		delta := 0.0
		for i, c := range coeffs {
			if i < len(x) {
				delta += c * x[i]
			}
		}
		out[factor] = b.factorTarget[factor] + delta
	}
	return out
}

func dot(coeffs map[int]float64, x []float64) float64 {
	total := 0.0
	for idx, c := range coeffs {
		if idx < len(x) {
			total += c * x[idx]
		}
	}
	return total
}

func dotCols(model *solver.Model, cols []int, x []float64) float64 {
	total := 0.0
	for _, idx := range cols {
		if idx < len(x) && idx < len(model.Objective) {
			total += model.Objective[idx] * x[idx]
		}
	}
	return total
}

func dotCol(model *solver.Model, idx int, x []float64) float64 {
	if idx < 0 || idx >= len(x) || idx >= len(model.Objective) {
		return 0
	}
	return model.Objective[idx] * x[idx]
}
