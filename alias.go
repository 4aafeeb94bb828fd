package stride

import "fmt"

// AliasSampler draws from a fixed discrete distribution in O(1) using
// Vose's alias method: http://keithschwarz.com/darts-dice-coins/. Each
// sample costs one uniform integer roll in [0,n) and one uniform(0,1) flip.
type AliasSampler struct {
	prob  []float64
	alias []int
	rng   *RandomStream
}

// NewAliasSampler builds an alias table from a weight vector w; rng is not
// drawn from while building and serves subsequent Next() calls. Weights
// need not sum to 1; they are
// scaled internally. Fails with EmptyWeightsError when w is empty or sums to
// zero.
func NewAliasSampler(w []float64, rng *RandomStream) (*AliasSampler, error) {
	n := len(w)
	if n == 0 {
		return nil, fmt.Errorf(EmptyWeightsError)
	}
	var sum float64
	for _, x := range w {
		sum += x
	}
	if sum <= 0 {
		return nil, fmt.Errorf(EmptyWeightsError)
	}

	scaled := make([]float64, n)
	for i, x := range w {
		scaled[i] = x * float64(n) / sum
	}

	prob := make([]float64, n)
	aliasOf := make([]int, n)

	var small, large []int
	for i, p := range scaled {
		if p < 1.0 {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		l := small[0]
		small = small[1:]
		g := large[0]
		large = large[1:]

		prob[l] = scaled[l]
		aliasOf[l] = g

		scaled[g] = scaled[g] + scaled[l] - 1
		if scaled[g] >= 1 {
			large = append(large, g)
		} else {
			small = append(small, g)
		}
	}

	for len(large) > 0 {
		g := large[0]
		large = large[1:]
		prob[g] = 1
	}
	for len(small) > 0 {
		l := small[0]
		small = small[1:]
		prob[l] = 1
	}

	return &AliasSampler{prob: prob, alias: aliasOf, rng: rng}, nil
}

// Next draws one sample index in [0, n).
func (a *AliasSampler) Next() int {
	roll := a.rng.NextInt(0, len(a.alias))
	flip := a.rng.NextDouble()
	if flip <= a.prob[roll] {
		return roll
	}
	return a.alias[roll]
}
