package stride

import (
	"sort"
	"sync"
)

// Population is the keyed, owning container of Person objects for one
// region. It exclusively owns each resident; visitors borrowed from other
// regions are owned by the visiting region for the duration of the visit.
type Population struct {
	people map[PersonID]*Person
	maxID  PersonID
}

// NewPopulation returns an empty Population.
func NewPopulation() *Population {
	return &Population{people: make(map[PersonID]*Person)}
}

// Emplace inserts p, keyed by its id, and tracks the running max id.
func (pop *Population) Emplace(p *Person) {
	pop.people[p.ID()] = p
	if p.ID() > pop.maxID {
		pop.maxID = p.ID()
	}
}

// Extract removes and returns the person with the given id.
func (pop *Population) Extract(id PersonID) *Person {
	p := pop.people[id]
	delete(pop.people, id)
	return p
}

// Get returns the person with the given id without removing it, or nil.
func (pop *Population) Get(id PersonID) *Person {
	return pop.people[id]
}

// Size returns the number of persons currently in the population.
func (pop *Population) Size() int { return len(pop.people) }

// MaxID returns the largest id any person has ever had in this population.
func (pop *Population) MaxID() PersonID { return pop.maxID }

// orderedIDs returns every current id in ascending order, for deterministic
// traversal and reproducible sampling.
func (pop *Population) orderedIDs() []PersonID {
	ids := make([]PersonID, 0, len(pop.people))
	for id := range pop.people {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every person in ascending id order.
func (pop *Population) Each(fn func(p *Person)) {
	for _, id := range pop.orderedIDs() {
		fn(pop.people[id])
	}
}

// GetInfectedCount returns the number of persons whose Health is currently
// Infected or Recovered.
func (pop *Population) GetInfectedCount() int {
	count := 0
	for _, p := range pop.people {
		h := p.Health()
		if h.IsInfected() || h.IsRecovered() {
			count++
		}
	}
	return count
}

// GetRandomPersons draws count distinct ids uniformly without replacement.
func (pop *Population) GetRandomPersons(rng *RandomStream, count int) []*Person {
	ids := pop.orderedIDs()
	if count <= 0 || len(ids) == 0 {
		return nil
	}
	if count > len(ids) {
		count = len(ids)
	}
	picked := make(map[int]bool, count)
	order := make([]int, 0, count)
	for len(order) < count {
		idx := rng.NextInt(0, len(ids))
		if picked[idx] {
			continue
		}
		picked[idx] = true
		order = append(order, idx)
	}
	sort.Ints(order)
	result := make([]*Person, 0, count)
	for _, idx := range order {
		result = append(result, pop.people[ids[idx]])
	}
	return result
}

// PersonPredicate reports whether a person satisfies a sampling predicate.
type PersonPredicate func(p *Person) bool

// GetRandomPersonsMatching draws count distinct persons satisfying match,
// sampling in rounds of doubling size (clamped to the population size) when
// a round finds no matches, and failing with a ResourceExhaustionError when
// the sample size has reached the population size and still cannot meet
// count.
func (pop *Population) GetRandomPersonsMatching(rng *RandomStream, count int, match PersonPredicate) ([]*Person, error) {
	if count <= 0 {
		return nil, nil
	}
	size := pop.Size()
	var results []*Person
	remaining := count
	sampleSize := count

	for remaining > 0 {
		candidates := pop.GetRandomPersons(rng, sampleSize)
		found := 0
		seen := make(map[PersonID]bool, len(results))
		for _, p := range results {
			seen[p.ID()] = true
		}
		for _, p := range candidates {
			if remaining == 0 {
				break
			}
			if seen[p.ID()] {
				continue
			}
			if match(p) {
				results = append(results, p)
				seen[p.ID()] = true
				remaining--
				found++
			}
		}
		if remaining == 0 {
			break
		}
		if found == 0 {
			if sampleSize >= size {
				return results, NewResourceExhaustionError(count, remaining, "not enough candidates satisfy the predicate")
			}
			sampleSize *= 2
			if sampleSize > size {
				sampleSize = size
			}
		} else {
			sampleSize = remaining
		}
	}
	return results, nil
}

// ParallelFor partitions ids into numThreads contiguous ranges and applies
// action(person, workerID) to each, running the ranges concurrently.
func (pop *Population) ParallelFor(numThreads int, action func(p *Person, workerID int)) {
	if numThreads <= 1 {
		pop.SerialFor(func(p *Person) { action(p, 0) })
		return
	}
	ids := pop.orderedIDs()
	n := len(ids)
	if n == 0 {
		return
	}
	if numThreads > n {
		numThreads = n
	}
	chunk := (n + numThreads - 1) / numThreads

	var wg sync.WaitGroup
	for w := 0; w < numThreads; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			for _, id := range ids[start:end] {
				action(pop.people[id], worker)
			}
		}(w, start, end)
	}
	wg.Wait()
}

// SerialFor is the single-threaded equivalent of ParallelFor.
func (pop *Population) SerialFor(action func(p *Person)) {
	for _, id := range pop.orderedIDs() {
		action(pop.people[id])
	}
}
