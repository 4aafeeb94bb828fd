package stride

// Fate holds the four per-person day-offsets that deterministically schedule
// a disease timeline once infection starts: the day infectiousness starts
// and ends, and the day symptoms start and end, each counted from the day
// StartInfection is called.
type Fate struct {
	StartInfectious int
	EndInfectious   int
	StartSymptomatic int
	EndSymptomatic   int
}

// CumulativeDistribution is an ordered, non-decreasing list of cumulative
// probabilities over the non-negative integers 0..len-1: entry k is
// P(X <= k). Sampling draws one uniform(0,1) and returns the first index
// whose cumulative probability is >= the draw.
type CumulativeDistribution []float64

// Sample draws one value from the distribution using u, a uniform(0,1) draw.
func (d CumulativeDistribution) Sample(u float64) int {
	for i, p := range d {
		if u <= p {
			return i
		}
	}
	if len(d) == 0 {
		return 0
	}
	return len(d) - 1
}

// DiseaseProfile is the configured disease model: four cumulative
// distributions for sampling a Fate, plus the affine coefficients used to
// back-solve a transmission rate from a configured R0.
type DiseaseProfile struct {
	StartInfectiousness CumulativeDistribution
	StartSymptomatic    CumulativeDistribution
	TimeInfectious      CumulativeDistribution
	TimeSymptomatic     CumulativeDistribution

	B0 float64
	B1 float64

	transmissionRate float64
}

// TransmissionRate returns the transmission rate derived from R0.
func (p *DiseaseProfile) TransmissionRate() float64 { return p.transmissionRate }

// Initialize derives the transmission rate from r0 via the affine back-solve
// transmission_rate = (r0 - b0) / b1, matching the linear model fitted to
// simulation data in the disease configuration.
func (p *DiseaseProfile) Initialize(r0 float64) {
	p.transmissionRate = (r0 - p.B0) / p.B1
}

// SampleFate draws one Fate using four independent uniform(0,1) draws from
// rng, one per timeline offset. start_infectiousness and start_symptomatic
// are sampled directly; end_infectiousness and end_symptomatic are each the
// corresponding start plus an independently-sampled duration.
func (p *DiseaseProfile) SampleFate(rng *RandomStream) Fate {
	startInf := p.StartInfectiousness.Sample(rng.NextDouble())
	startSym := p.StartSymptomatic.Sample(rng.NextDouble())
	timeInf := p.TimeInfectious.Sample(rng.NextDouble())
	timeSym := p.TimeSymptomatic.Sample(rng.NextDouble())
	return Fate{
		StartInfectious:  startInf,
		EndInfectious:    startInf + timeInf,
		StartSymptomatic: startSym,
		EndSymptomatic:   startSym + timeSym,
	}
}
