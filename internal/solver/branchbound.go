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

package solver

import "math"

// MaxNodes bounds how many branch-and-bound nodes Solve will explore before
// giving up and returning the best integer-feasible solution found so far
// (or StatusIterationLimit if none was found).
const MaxNodes = 5000

// Solve runs branch-and-bound over m's binary columns, relaxing everything
// else to the LP solved by solveRelaxation. The continuous buy/sell
// columns never need branching: only the big-M indicator columns marked
// via MakeBinary do.
func Solve(m *Model) Solution {
	best := Solution{Status: StatusInfeasible, Objective: math.Inf(1)}
	haveBest := false

	type node struct{ model *Model }
	stack := []node{{model: m}}
	nodes := 0

	for len(stack) > 0 && nodes < MaxNodes {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		sol := solveRelaxation(n.model)
		if sol.Status != StatusOptimal {
			continue
		}
		if haveBest && sol.Objective >= best.Objective-epsilon {
			continue // bound: can't possibly beat the incumbent
		}

		branchVar := -1
		for i := 0; i < n.model.NumVars; i++ {
			if !n.model.Binary[i] {
				continue
			}
			v := sol.X[i]
			if v > epsilon && v < 1-epsilon {
				branchVar = i
				break
			}
		}

		if branchVar == -1 {
			// Integer-feasible (every binary column landed on 0 or 1).
			best = sol
			haveBest = true
			continue
		}

		zero := n.model.clone()
		zero.SetBounds(branchVar, 0, 0)
		one := n.model.clone()
		one.SetBounds(branchVar, 1, 1)
		stack = append(stack, node{model: zero}, node{model: one})
	}

	if !haveBest {
		if nodes >= MaxNodes {
			return Solution{Status: StatusIterationLimit}
		}
		return Solution{Status: StatusInfeasible}
	}
	return best
}
