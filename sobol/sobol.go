// Package sobol implements C14's effect-index half of the optimizer/MCMC
// harness: the Saltelli variance-based sensitivity estimator, run with
// `n_workers` parallel model evaluations between explicit joins, per
// spec.md §5 ("Sobol-style effect-index sampler likewise runs n_workers
// parallel evaluations between explicit joins"). Grounded in the *spirit*
// of support/effect_indexes.cpp's parallel-batch evaluation shape, adapted
// from its specific estimator (not in original_source) to the standard
// Saltelli first-order/total-order formulas.
package sobol

import (
	"context"
	"sync"
)

// EvalFunc runs one model evaluation for a parameter vector and returns a
// scalar output. Like mcmc.ScoreFunc, each call must be independently safe
// to run concurrently (its own Model_Data-equivalent copy).
type EvalFunc func(params []float64) (float64, error)

// Indices holds the per-dimension first-order (Si) and total-order (STi)
// sensitivity indices the Saltelli estimator produces.
type Indices struct {
	FirstOrder []float64
	Total      []float64
}

// evalBatch runs eval over rows with at most nWorkers in flight
// concurrently, joining (an explicit sync.WaitGroup barrier) before
// returning — the batch-then-join unit spec.md §5 describes.
func evalBatch(ctx context.Context, rows [][]float64, eval EvalFunc, nWorkers int) ([]float64, error) {
	if nWorkers < 1 {
		nWorkers = 1
	}
	out := make([]float64, len(rows))
	errs := make([]error, len(rows))
	sem := make(chan struct{}, nWorkers)
	var wg sync.WaitGroup

	for i, row := range rows {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, row []float64) {
			defer wg.Done()
			defer func() { <-sem }()
			out[i], errs[i] = eval(row)
		}(i, row)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// withColumn returns a copy of base with column i replaced by replacement's
// column i, the "AB_i" matrix construction the Saltelli estimator needs.
func withColumn(base, replacement [][]float64, i int) [][]float64 {
	out := make([][]float64, len(base))
	for r := range base {
		row := make([]float64, len(base[r]))
		copy(row, base[r])
		row[i] = replacement[r][i]
		out[r] = row
	}
	return out
}

// ComputeIndices runs the Saltelli estimator over two independent
// quasi-random sample matrices A and B (N samples x d dimensions each),
// evaluating f(A), f(B), and f(AB_i) for every dimension i, each as one
// evalBatch barrier, per spec.md §5.
func ComputeIndices(ctx context.Context, a, b [][]float64, eval EvalFunc, nWorkers int) (*Indices, error) {
	n := len(a)
	if n == 0 || len(a[0]) == 0 {
		return &Indices{}, nil
	}
	d := len(a[0])

	ya, err := evalBatch(ctx, a, eval, nWorkers)
	if err != nil {
		return nil, err
	}
	yb, err := evalBatch(ctx, b, eval, nWorkers)
	if err != nil {
		return nil, err
	}

	meanY := mean(append(append([]float64{}, ya...), yb...))
	varY := variance(append(append([]float64{}, ya...), yb...), meanY)

	idx := &Indices{FirstOrder: make([]float64, d), Total: make([]float64, d)}
	if varY == 0 {
		return idx, nil
	}

	for i := 0; i < d; i++ {
		abi := withColumn(a, b, i)
		yabi, err := evalBatch(ctx, abi, eval, nWorkers)
		if err != nil {
			return nil, err
		}

		var firstNum, totalNum float64
		for r := 0; r < n; r++ {
			firstNum += yb[r] * (yabi[r] - ya[r])
			totalNum += (ya[r] - yabi[r]) * (ya[r] - yabi[r])
		}
		idx.FirstOrder[i] = firstNum / float64(n) / varY
		idx.Total[i] = totalNum / float64(2*n) / varY
	}
	return idx, nil
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func variance(vals []float64, mean float64) float64 {
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(vals))
}
