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

package solver_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/solver"
)

var _ = Describe("Simplex solve", func() {
	It("minimizes a simple sum subject to a lower bound", func() {
		m := solver.NewModel(2)
		m.Objective[0] = 1
		m.Objective[1] = 1
		m.SetBounds(0, 0, 8)
		m.SetBounds(1, 0, 8)
		m.AddGE("floor", []float64{1, 1}, 10)

		sol := solver.Solve(m)
		Expect(sol.Status).To(Equal(solver.StatusOptimal))
		Expect(sol.Objective).To(BeNumerically("~", 10, 1e-6))
		Expect(sol.X[0] + sol.X[1]).To(BeNumerically("~", 10, 1e-6))
	})

	It("reports infeasible when bounds contradict a constraint", func() {
		m := solver.NewModel(1)
		m.Objective[0] = 1
		m.SetBounds(0, 0, 1)
		m.AddGE("impossible", []float64{1}, 5)

		sol := solver.Solve(m)
		Expect(sol.Status).To(Equal(solver.StatusInfeasible))
	})

	It("respects an equality constraint exactly", func() {
		m := solver.NewModel(2)
		m.Objective[0] = 2
		m.Objective[1] = 1
		m.SetBounds(0, 0, math.Inf(1))
		m.SetBounds(1, 0, math.Inf(1))
		m.AddEQ("exact", []float64{1, 1}, 4)

		sol := solver.Solve(m)
		Expect(sol.Status).To(Equal(solver.StatusOptimal))
		Expect(sol.X[0]).To(BeNumerically("~", 0, 1e-6))
		Expect(sol.X[1]).To(BeNumerically("~", 4, 1e-6))
	})

	It("branches binary columns to integral 0/1 values", func() {
		m := solver.NewModel(2)
		m.Objective[0] = -1 // maximize x by minimizing -x
		m.SetBounds(0, 0, 1)
		m.MakeBinary(0)
		m.SetBounds(1, 0, 5)
		// x can only be 1 if y >= 3 (big-M link), and y costs a tiny amount
		// so the solver won't pay for it unless forced.
		m.Objective[1] = 0.001
		m.AddLE("link", []float64{3, -1}, 0)

		sol := solver.Solve(m)
		Expect(sol.Status).To(Equal(solver.StatusOptimal))
		Expect(sol.X[0]).To(BeNumerically("~", 1, 1e-6))
		Expect(sol.X[1]).To(BeNumerically(">=", 3-1e-6))
	})

	It("extends every existing constraint row when a column is added later", func() {
		m := solver.NewModel(1)
		m.AddLE("only", []float64{1}, 5)
		idx := m.AddColumn(0, math.Inf(1), 0, "aux")
		Expect(m.Constraints[0].Coeffs).To(HaveLen(2))
		Expect(m.Constraints[0].Coeffs[idx]).To(Equal(0.0))
	})
})
