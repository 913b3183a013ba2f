// Package stats implements C13: per-series summary statistics and
// goodness-of-fit metrics consumed by the optimizer/MCMC harness (package
// mcmc) to turn a model run into a scalar score. Grounded on the teacher's
// small, stateless "compute one result from one input slice" helper style
// (e.g. inspector/golang/utils.go's pure functions over already-parsed
// data) rather than any one specific file, since the teacher has no
// numerical-statistics package of its own.
package stats

import "math"

// Summary is a per-series descriptive summary, ignoring NaN entries (the
// series' missing-value convention, matching dataset's CSV blank-cell = NaN
// rule).
type Summary struct {
	Count          int
	Mean, Variance float64
	Min, Max       float64
	StdDev         float64
}

// Summarize computes Summary over the non-NaN elements of vals.
func Summarize(vals []float64) Summary {
	var s Summary
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	var sum float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		s.Count++
		sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	if s.Count == 0 {
		s.Min, s.Max = 0, 0
		return s
	}
	s.Mean = sum / float64(s.Count)

	var sq float64
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		d := v - s.Mean
		sq += d * d
	}
	s.Variance = sq / float64(s.Count)
	s.StdDev = math.Sqrt(s.Variance)
	return s
}

// GoodnessOfFit holds the metrics Compare returns, one per (observed,
// simulated) series pair, skipping any index where either side is NaN.
type GoodnessOfFit struct {
	N             int
	RMSE          float64
	MAE           float64
	Bias          float64 // mean(sim - obs)
	NashSutcliffe float64 // NSE: 1 - SSres/SStot
	RSquared      float64
}

// Compare computes GoodnessOfFit between observed and simulated, which must
// be the same length; pairs where either is NaN are skipped.
func Compare(observed, simulated []float64) GoodnessOfFit {
	n := len(observed)
	if len(simulated) < n {
		n = len(simulated)
	}
	var g GoodnessOfFit
	var sumSq, sumAbs, sumBias, obsSum float64
	pairs := make([][2]float64, 0, n)
	for i := 0; i < n; i++ {
		o, s := observed[i], simulated[i]
		if math.IsNaN(o) || math.IsNaN(s) {
			continue
		}
		pairs = append(pairs, [2]float64{o, s})
		d := s - o
		sumSq += d * d
		sumAbs += math.Abs(d)
		sumBias += d
		obsSum += o
	}
	g.N = len(pairs)
	if g.N == 0 {
		return g
	}
	g.RMSE = math.Sqrt(sumSq / float64(g.N))
	g.MAE = sumAbs / float64(g.N)
	g.Bias = sumBias / float64(g.N)

	obsMean := obsSum / float64(g.N)
	var obsVar, resSq float64
	for _, p := range pairs {
		o, s := p[0], p[1]
		obsVar += (o - obsMean) * (o - obsMean)
		resSq += (s - o) * (s - o)
	}
	if obsVar == 0 {
		g.NashSutcliffe = math.NaN()
		g.RSquared = math.NaN()
		return g
	}
	g.NashSutcliffe = 1 - resSq/obsVar

	var covar, simVar float64
	var simSum float64
	for _, p := range pairs {
		simSum += p[1]
	}
	simMean := simSum / float64(g.N)
	for _, p := range pairs {
		o, s := p[0], p[1]
		covar += (o - obsMean) * (s - simMean)
		simVar += (s - simMean) * (s - simMean)
	}
	if obsVar == 0 || simVar == 0 {
		g.RSquared = math.NaN()
	} else {
		r := covar / math.Sqrt(obsVar*simVar)
		g.RSquared = r * r
	}
	return g
}
