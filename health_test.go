package stride

import "testing"

func TestHealthStartInfectionRequiresSusceptible(t *testing.T) {
	h := NewHealth(Fate{StartInfectious: 2, EndInfectious: 8, StartSymptomatic: 3, EndSymptomatic: 7})
	if err := h.StartInfection(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "starting infection on a susceptible person", err)
	}
	if !h.IsInfected() {
		t.Fatalf("expected infected status after StartInfection, got %s", h.Status())
	}
	if err := h.StartInfection(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "starting infection a second time")
	}
}

func TestHealthStopInfectionRequiresInfected(t *testing.T) {
	h := NewHealth(Fate{})
	if err := h.StopInfection(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "stopping infection on a susceptible person")
	}
	_ = h.StartInfection()
	if err := h.StopInfection(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "stopping infection on an infected person", err)
	}
	if !h.IsRecovered() {
		t.Fatalf("expected Recovered after StopInfection, got %s", h.Status())
	}
}

func TestHealthSetImmuneIsTerminal(t *testing.T) {
	h := NewHealth(Fate{})
	h.SetImmune()
	if !h.IsImmune() {
		t.Fatalf("expected Immune after SetImmune, got %s", h.Status())
	}
	if err := h.StartInfection(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "starting infection on an immune person")
	}
}

func TestHealthUpdateFollowsFateTimeline(t *testing.T) {
	fate := Fate{StartInfectious: 2, EndInfectious: 6, StartSymptomatic: 3, EndSymptomatic: 5}
	h := NewHealth(fate)
	_ = h.StartInfection()

	wantAtDay := map[int]HealthStatus{
		1: Exposed,
		2: Infectious,
		3: InfectiousAndSymptomatic,
		4: InfectiousAndSymptomatic,
		5: Infectious,
		6: Recovered,
	}
	for day := 1; day <= 6; day++ {
		h.Update()
		if got, want := h.Status(), wantAtDay[day]; got != want {
			t.Errorf("day %d: got status %s, want %s", day, got, want)
		}
	}
	// Recovered is terminal; further Update calls are no-ops.
	h.Update()
	if !h.IsRecovered() {
		t.Fatalf("expected Update to be a no-op once Recovered, got %s", h.Status())
	}
}

func TestHealthUpdateNoopWhenNotInfected(t *testing.T) {
	h := NewHealth(Fate{StartInfectious: 1})
	h.Update()
	if h.DaysInfected() != 0 {
		t.Errorf(UnequalIntParameterError, "DaysInfected", 0, h.DaysInfected())
	}
}

func TestCumulativeDistributionSample(t *testing.T) {
	d := CumulativeDistribution{0.2, 0.5, 1.0}
	cases := []struct {
		u    float64
		want int
	}{
		{0.0, 0},
		{0.2, 0},
		{0.21, 1},
		{0.5, 1},
		{0.99, 2},
	}
	for _, c := range cases {
		if got := d.Sample(c.u); got != c.want {
			t.Errorf("Sample(%f) = %d, want %d", c.u, got, c.want)
		}
	}
}

func TestDiseaseProfileInitializeAndSampleFate(t *testing.T) {
	profile := &DiseaseProfile{
		StartInfectiousness: CumulativeDistribution{1.0},
		StartSymptomatic:    CumulativeDistribution{1.0},
		TimeInfectious:      CumulativeDistribution{1.0},
		TimeSymptomatic:     CumulativeDistribution{1.0},
		B0:                  1.0,
		B1:                  2.0,
	}
	profile.Initialize(5.0)
	if got, want := profile.TransmissionRate(), 2.0; got != want {
		t.Errorf(UnequalFloatParameterError, "TransmissionRate", want, got)
	}

	fate := profile.SampleFate(NewRandomStream(1))
	if fate.StartInfectious != 0 || fate.StartSymptomatic != 0 {
		t.Errorf("degenerate single-bucket distributions should sample index 0, got %+v", fate)
	}
	if fate.EndInfectious != fate.StartInfectious || fate.EndSymptomatic != fate.StartSymptomatic {
		t.Errorf("end offsets should equal start + duration (duration 0 here), got %+v", fate)
	}
}
