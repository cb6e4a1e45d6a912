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

import "sort"

// FactorExposure is one identifier's loading on one named factor (e.g.
// "value", "momentum", "size").
type FactorExposure struct {
	Factor   string  `json:"factor"`
	Loading  float64 `json:"loading"`
}

// FactorModel holds per-identifier factor loadings plus a benchmark
// exposure to track against. Only DIRECT_INDEX strategies carry one; every
// other strategy kind leaves this nil and the objective's factor term drops
// out entirely.
type FactorModel struct {
	Benchmark  map[string]float64          `json:"benchmark"`
	Exposures  map[string][]FactorExposure `json:"exposures"`
}

// ExposureOf returns the loadings for identifier, or nil if it carries none
// (treated as all-zero loadings).
func (f *FactorModel) ExposureOf(identifier string) []FactorExposure {
	if f == nil {
		return nil
	}
	return f.Exposures[identifier]
}

// Factors returns the sorted set of factor names referenced by the
// benchmark, used to give the objective term a stable iteration order.
func (f *FactorModel) Factors() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Benchmark))
	for name := range f.Benchmark {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
