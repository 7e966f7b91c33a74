package analytics

import (
	"fmt"
	"math"
)

// minVariance solves the long-only minimum-variance allocation:
//
//	minimize    w' Cov w
//	subject to  sum(w) = 1
//	            w' mu  = target
//	            0 <= w_i <= 1
//
// starting from equal weights in spirit: the unconstrained-bounds problem
// is solved directly from its KKT system, then bound violations are fixed
// one at a time (active set) and the reduced system is re-solved. The
// quadratic is convex, so each clamp can only move the solution toward
// the box and the loop terminates in at most n steps.
//
// On failure the diagnostic string explains why no allocation was found.
func minVariance(cov [][]float64, mu []float64, target float64) (weights []float64, diagnostic string, ok bool) {
	n := len(mu)
	if n == 0 {
		return nil, "no assets to allocate", false
	}
	if n == 1 {
		// Fully invested single asset; feasibility was checked upstream
		return []float64{1}, "", true
	}

	const tol = 1e-9

	fixed := make(map[int]float64) // index -> weight clamped at a bound

	for iter := 0; iter <= n; iter++ {
		free := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if _, isFixed := fixed[i]; !isFixed {
				free = append(free, i)
			}
		}

		var fixedSum, fixedReturn float64
		for i, w := range fixed {
			fixedSum += w
			fixedReturn += w * mu[i]
		}
		budget := 1 - fixedSum
		wantReturn := target - fixedReturn

		if len(free) == 0 {
			return nil, "no feasible allocation within bounds", false
		}

		var w []float64
		if len(free) == 1 {
			// The budget constraint pins the last free weight; the
			// return constraint must then hold on its own
			w = []float64{budget}
			if math.Abs(budget*mu[free[0]]-wantReturn) > 1e-6 {
				return nil, "no feasible allocation within bounds", false
			}
		} else {
			var solveOK bool
			w, solveOK = solveEqualityQP(cov, mu, free, fixed, budget, wantReturn)
			if !solveOK {
				return nil, "singular KKT system", false
			}
		}

		// Clamp the worst bound violation, if any
		worstIdx, worstViol, worstBound := -1, tol, 0.0
		for k, i := range free {
			if w[k] < -worstViol {
				worstIdx, worstViol, worstBound = i, -w[k], 0
			}
			if w[k]-1 > worstViol {
				worstIdx, worstViol, worstBound = i, w[k]-1, 1
			}
		}

		if worstIdx < 0 {
			out := make([]float64, n)
			for i, wf := range fixed {
				out[i] = wf
			}
			for k, i := range free {
				out[i] = math.Min(1, math.Max(0, w[k]))
			}
			if err := verifyAllocation(out, mu, target); err != nil {
				return nil, err.Error(), false
			}
			return out, "", true
		}

		fixed[worstIdx] = worstBound
	}

	return nil, "active-set iteration limit exceeded", false
}

// solveEqualityQP solves the KKT system of the variance minimization
// restricted to the free indices, with the fixed weights contributing to
// the gradient and the constraint right-hand sides.
func solveEqualityQP(cov [][]float64, mu []float64, free []int, fixed map[int]float64, budget, wantReturn float64) ([]float64, bool) {
	m := len(free)
	size := m + 2 // free weights plus two Lagrange multipliers

	a := make([][]float64, size)
	b := make([]float64, size)
	for i := range a {
		a[i] = make([]float64, size)
	}

	// Stationarity rows: 2*Cov_ff*w + lambda1*1 + lambda2*mu_f =
	// -2*Cov_fc*w_c
	for r, i := range free {
		for c, j := range free {
			a[r][c] = 2 * cov[i][j]
		}
		a[r][m] = 1
		a[r][m+1] = mu[i]
		for j, wj := range fixed {
			b[r] -= 2 * cov[i][j] * wj
		}
	}

	// Budget constraint row
	for c := range free {
		a[m][c] = 1
	}
	b[m] = budget

	// Return constraint row
	for c, j := range free {
		a[m+1][c] = mu[j]
	}
	b[m+1] = wantReturn

	x, ok := solveLinear(a, b)
	if !ok {
		return nil, false
	}
	return x[:m], true
}

// solveLinear solves a*x = b in place by Gaussian elimination with
// partial pivoting. ok is false for singular systems.
func solveLinear(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)

	for col := 0; col < n; col++ {
		// Pivot
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		// Eliminate below
		for r := col + 1; r < n; r++ {
			factor := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= factor * a[col][c]
			}
			b[r] -= factor * b[col]
		}
	}

	// Back substitution
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

// verifyAllocation checks the final constraints within tolerance
func verifyAllocation(w, mu []float64, target float64) error {
	var sum, ret float64
	for i, wi := range w {
		if wi < -1e-6 || wi > 1+1e-6 {
			return fmt.Errorf("weight %d out of bounds: %.6f", i, wi)
		}
		sum += wi
		ret += wi * mu[i]
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights sum to %.6f, not 1", sum)
	}
	if math.Abs(ret-target) > 1e-6 {
		return fmt.Errorf("achieved return %.6f misses target %.6f", ret, target)
	}
	return nil
}
