package stride

import (
	"sync/atomic"
	"testing"
)

func newTestPopulation(n int) *Population {
	pop := NewPopulation()
	for i := 1; i <= n; i++ {
		pop.Emplace(newTestPerson(PersonID(i), 20+i%60))
	}
	return pop
}

func TestPopulationEmplaceAndGet(t *testing.T) {
	pop := NewPopulation()
	p := newTestPerson(5, 40)
	pop.Emplace(p)

	if got := pop.Get(5); got != p {
		t.Fatalf("Get(5) did not return the emplaced person")
	}
	if got, want := pop.Size(), 1; got != want {
		t.Errorf(UnequalIntParameterError, "Size", want, got)
	}
	if got, want := pop.MaxID(), PersonID(5); got != want {
		t.Errorf("MaxID = %d, want %d", got, want)
	}
}

func TestPopulationExtractRemoves(t *testing.T) {
	pop := newTestPopulation(3)
	p := pop.Extract(2)
	if p == nil || p.ID() != 2 {
		t.Fatalf("Extract(2) did not return person 2")
	}
	if pop.Get(2) != nil {
		t.Fatalf("Extract(2) did not remove person 2 from the population")
	}
	if got, want := pop.Size(), 2; got != want {
		t.Errorf(UnequalIntParameterError, "Size after Extract", want, got)
	}
}

func TestPopulationEachIsOrdered(t *testing.T) {
	pop := newTestPopulation(5)
	var seen []PersonID
	pop.Each(func(p *Person) { seen = append(seen, p.ID()) })
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Fatalf("Each did not visit in ascending id order: %v", seen)
		}
	}
}

func TestPopulationGetInfectedCount(t *testing.T) {
	pop := newTestPopulation(4)
	pop.Get(1).Health().fate = Fate{StartInfectious: 100}
	_ = pop.Get(1).Health().StartInfection()
	_ = pop.Get(2).Health().StartInfection()
	_ = pop.Get(2).Health().StopInfection()

	if got, want := pop.GetInfectedCount(), 2; got != want {
		t.Errorf("GetInfectedCount = %d, want %d (one Exposed, one Recovered)", got, want)
	}
}

func TestPopulationGetRandomPersonsDistinctAndBounded(t *testing.T) {
	pop := newTestPopulation(10)
	rng := NewRandomStream(1)
	picked := pop.GetRandomPersons(rng, 4)
	if got, want := len(picked), 4; got != want {
		t.Fatalf(UnequalIntParameterError, "len(picked)", want, got)
	}
	seen := make(map[PersonID]bool)
	for _, p := range picked {
		if seen[p.ID()] {
			t.Fatalf("GetRandomPersons returned duplicate person %d", p.ID())
		}
		seen[p.ID()] = true
	}
}

func TestPopulationGetRandomPersonsMatching(t *testing.T) {
	pop := newTestPopulation(20)
	// Mark half the population non-susceptible so the predicate has to filter.
	for i := PersonID(1); i <= 10; i++ {
		pop.Get(i).Health().fate = Fate{StartInfectious: 100}
		_ = pop.Get(i).Health().StartInfection()
	}

	susceptible := func(p *Person) bool { return p.Health().IsSusceptible() }
	rng := NewRandomStream(7)
	got, err := pop.GetRandomPersonsMatching(rng, 5, susceptible)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "sampling susceptible persons", err)
	}
	if len(got) != 5 {
		t.Fatalf(UnequalIntParameterError, "len(got)", 5, len(got))
	}
	for _, p := range got {
		if !p.Health().IsSusceptible() {
			t.Errorf("GetRandomPersonsMatching returned a non-susceptible person %d", p.ID())
		}
	}
}

func TestPopulationGetRandomPersonsMatchingExhaustion(t *testing.T) {
	pop := newTestPopulation(5)
	none := func(p *Person) bool { return false }
	rng := NewRandomStream(3)
	_, err := pop.GetRandomPersonsMatching(rng, 2, none)
	if err == nil {
		t.Fatalf(ExpectedErrorWhileError, "sampling against a predicate nothing satisfies")
	}
	if _, ok := err.(*ResourceExhaustionError); !ok {
		t.Errorf("expected a *ResourceExhaustionError, got %T", err)
	}
}

func TestPopulationParallelForVisitsEveryone(t *testing.T) {
	pop := newTestPopulation(37)
	var count int64
	pop.ParallelFor(4, func(p *Person, workerID int) { atomic.AddInt64(&count, 1) })
	if got, want := count, int64(37); got != want {
		t.Errorf("ParallelFor visited %d persons, want %d", got, want)
	}
}
