package stride

import "math"

// SimulationStepInput is what a region receives at the start of one
// TimeStep: the visitors now arriving, and the expatriates now returning
// home. A returning expatriate's own Person lives in this region's
// ExpatriateJournal (it never left process); only the updated health
// snapshot travels with the return notice.
type SimulationStepInput struct {
	Visitors    []IncomingVisitor
	Expatriates []OutgoingVisitor
}

// IncomingVisitor is a person another region is sending this region, along
// with the data needed to reinsert them as a visitor.
type IncomingVisitor struct {
	HomeID     PersonID
	Age        int
	Health     IncomingHealth
	HomeRegion RegionID
	ReturnDay  int
}

// IncomingHealth is the health snapshot carried with a traveling person:
// status, day counter and Fate, plus the survey-participation flag.
type IncomingHealth struct {
	Status        HealthStatus
	DaysInfected  int
	Fate          Fate
	IsParticipant bool
}

// OutgoingVisitor is a person this region is sending elsewhere: either a
// fresh visitor dispatch or a returning expatriate, tagged with the target
// region and the day they are due.
type OutgoingVisitor struct {
	HomeID        PersonID
	Age           int
	Health        IncomingHealth
	VisitedRegion RegionID
	ReturnDay     int
}

// SimulationStepOutput is what a region produces at the end of one TimeStep:
// residents now dispatched as visitors elsewhere, and visitors now returning
// to their own home regions.
type SimulationStepOutput struct {
	Visitors    []OutgoingVisitor
	Expatriates []OutgoingVisitor
}

// Simulator is one region's per-day epidemic engine: config, per-thread
// contact handlers, a travel RNG, a calendar, the resident population,
// visitor/expatriate journals, one cluster set per cluster type, recycled
// id free-lists, the disease profile, the configured log mode, and the
// track-index-case flag.
type Simulator struct {
	RegionID RegionID

	calendar      *Calendar
	daysOff       DaysOffPolicy
	population    *Population
	visitors      *VisitorJournal
	expatriates   *ExpatriateJournal
	travel        *RegionTravel
	clusters      [numClusterTypes]*clusterVector
	profiles      [numClusterTypes]ContactProfile
	freePersonIDs []PersonID
	freeHouseholds []ClusterID
	nextHousehold  ClusterID

	disease *DiseaseProfile

	numThreads     int
	contactHandlers []*ContactHandler
	travelRNG       *RandomStream

	logMode        LogMode
	trackIndexCase bool
	sink           DataLogger

	numDays int
}

// IsDone reports whether the simulator has run its configured number of
// days.
func (s *Simulator) IsDone() bool {
	return s.calendar.Day() >= s.numDays
}

// Population returns the region's current resident population.
func (s *Simulator) Population() *Population { return s.population }

// Calendar returns the region's calendar.
func (s *Simulator) Calendar() *Calendar { return s.calendar }

// Disease returns the region's configured disease profile.
func (s *Simulator) Disease() *DiseaseProfile { return s.disease }

// NumThreads returns the region's configured worker count.
func (s *Simulator) NumThreads() int { return s.numThreads }

// Travel returns the region's travel model.
func (s *Simulator) Travel() *RegionTravel { return s.travel }

// SetSink installs the logger this simulator reports transmission/contact
// events and daily case counts to.
func (s *Simulator) SetSink(sink DataLogger) { s.sink = sink }

// addPersonToClusters inserts person into every cluster they belong to,
// skipping cluster types where their id is 0 ("not a member").
func (s *Simulator) addPersonToClusters(p *Person) {
	for _, t := range ClusterTypes {
		id := ClusterID(p.ClusterID(t))
		if id == 0 {
			continue
		}
		if c, ok := s.clusters[t].get(id); ok {
			c.AddPerson(p)
		}
	}
}

// removePersonFromClusters removes person from every cluster they belong
// to, mirroring addPersonToClusters.
func (s *Simulator) removePersonFromClusters(p *Person) {
	for _, t := range ClusterTypes {
		id := ClusterID(p.ClusterID(t))
		if id == 0 {
			continue
		}
		if c, ok := s.clusters[t].get(id); ok {
			c.RemovePerson(p)
		}
	}
}

// generatePersonID allocates a local id, preferring the recycled free-list
// over bumping the population's max id.
func (s *Simulator) generatePersonID() PersonID {
	if len(s.freePersonIDs) > 0 {
		id := s.freePersonIDs[0]
		s.freePersonIDs = s.freePersonIDs[1:]
		return id
	}
	return s.population.MaxID() + 1
}

func (s *Simulator) recyclePersonID(id PersonID) {
	s.freePersonIDs = append(s.freePersonIDs, id)
}

// generateHousehold allocates a household cluster id, preferring the
// recycled free-list over appending a newly-created empty household.
func (s *Simulator) generateHousehold() ClusterID {
	if len(s.freeHouseholds) > 0 {
		id := s.freeHouseholds[0]
		s.freeHouseholds = s.freeHouseholds[1:]
		return id
	}
	id := s.nextHousehold
	s.nextHousehold++
	s.clusters[Household].add(NewCluster(id, Household, s.profiles[Household]))
	return id
}

func (s *Simulator) recycleHousehold(id ClusterID) {
	s.freeHouseholds = append(s.freeHouseholds, id)
}

// AcceptVisitors reinserts returning expatriates and admits incoming
// visitors at the start of a day, per §4.J step 1.
func (s *Simulator) AcceptVisitors(input SimulationStepInput) error {
	for _, expat := range input.Expatriates {
		home, found := s.expatriates.Extract(expat.HomeID)
		if !found {
			continue
		}
		p := home.Person
		applyHealthSnapshot(p, expat.Health)
		s.population.Emplace(p)
		s.addPersonToClusters(p)
	}

	for _, v := range input.Visitors {
		localID := s.generatePersonID()
		householdID := s.generateHousehold()
		workID := ClusterID(0)
		if n := s.clusters[Work].len(); n > 1 {
			workID = ClusterID(s.travelRNG.NextUint(uint64(n - 1)))
		}
		primaryID := ClusterID(0)
		if n := s.clusters[PrimaryCommunity].len(); n > 1 {
			primaryID = ClusterID(s.travelRNG.NextUint(uint64(n - 1)))
		}
		secondaryID := ClusterID(0)
		if n := s.clusters[SecondaryCommunity].len(); n > 1 {
			secondaryID = ClusterID(s.travelRNG.NextUint(uint64(n - 1)))
		}

		p := NewPerson(localID, v.Age, uint32(householdID), 0, uint32(workID), uint32(primaryID), uint32(secondaryID), Fate{})
		applyHealthSnapshot(p, v.Health)

		s.population.Emplace(p)
		s.addPersonToClusters(p)
		s.visitors.Add(localID, v.HomeID, v.HomeRegion, v.ReturnDay)
	}
	return nil
}

// runDaysOff resolves the configured days-off policy for the current day.
func (s *Simulator) runDaysOff() (isWorkOff, isSchoolOff bool) {
	return s.daysOff.IsWorkOff(s.calendar), s.daysOff.IsSchoolOff(s.calendar)
}

// updateClusters runs the Infector kernel over every cluster, phased in the
// fixed order household, school, work, primary-community,
// secondary-community, once per cluster type.
func (s *Simulator) updateClusters() {
	inf := Infector{LogMode: s.logMode, TrackIndexCase: s.trackIndexCase}
	day := s.calendar.Day()
	for _, t := range ClusterTypes {
		s.parallelClusterPass(t, func(c *Cluster, handler *ContactHandler) {
			inf.Execute(c, s.disease, handler, s.sink, day)
		})
	}
}

// parallelClusterPass applies action to every cluster of type t, fanning
// out across s.numThreads worker goroutines; no two workers touch the same
// cluster concurrently.
func (s *Simulator) parallelClusterPass(t ClusterType, action func(c *Cluster, handler *ContactHandler)) {
	clusters := s.clusters[t].list
	if len(clusters) == 0 {
		return
	}

	numThreads := s.numThreads
	if numThreads < 1 {
		numThreads = 1
	}
	if numThreads > len(clusters) {
		numThreads = len(clusters)
	}
	chunk := (len(clusters) + numThreads - 1) / numThreads

	done := make(chan struct{}, numThreads)
	for w := 0; w < numThreads; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(clusters) {
			end = len(clusters)
		}
		if start >= end {
			done <- struct{}{}
			continue
		}
		go func(worker, start, end int) {
			handler := s.contactHandlers[worker]
			for _, c := range clusters[start:end] {
				action(c, handler)
			}
			done <- struct{}{}
		}(w, start, end)
	}
	for w := 0; w < numThreads; w++ {
		<-done
	}
}

// ReturnVisitors extracts visitors due back today, dispatches a fresh batch
// of outbound travelers per §4.J step 6, and returns the two outgoing
// lists.
func (s *Simulator) ReturnVisitors() SimulationStepOutput {
	today := s.calendar.Day()

	var returningExpatriates []OutgoingVisitor
	for _, group := range s.visitors.Extract(today) {
		for _, rec := range group {
			p := s.population.Extract(rec.LocalID)
			if p == nil {
				continue
			}
			s.removePersonFromClusters(p)
			s.recyclePersonID(rec.LocalID)
			s.recycleHousehold(ClusterID(p.ClusterID(Household)))

			returningExpatriates = append(returningExpatriates, OutgoingVisitor{
				HomeID:        rec.HomeID,
				Age:           p.Age(),
				Health:        snapshotHealth(p),
				VisitedRegion: rec.HomeRegion,
				ReturnDay:     today,
			})
		}
	}

	var outgoingVisitors []OutgoingVisitor
	if s.travel != nil && s.travel.HasDestinations() {
		notVisitor := func(p *Person) bool { return !s.visitors.IsVisitor(p.ID()) }
		n := int(math.Floor(float64(s.population.Size()-s.visitors.VisitorCount()) * s.travel.TravelFraction))
		if n > 0 {
			candidates, _ := s.population.GetRandomPersonsMatching(s.travelRNG, n, notVisitor)
			for _, p := range candidates {
				target := s.travel.SampleDestination()
				s.removePersonFromClusters(p)
				returnDay := today + s.travelRNG.NextInt(s.travel.MinDuration, s.travel.MaxDuration+1)

				outgoingVisitors = append(outgoingVisitors, OutgoingVisitor{
					HomeID:        p.ID(),
					Age:           p.Age(),
					Health:        snapshotHealth(p),
					VisitedRegion: target,
					ReturnDay:     returnDay,
				})

				s.population.Extract(p.ID())
				s.expatriates.Add(p.ID(), ExpatriateRecord{Person: p, VisitedRegion: target, ReturnDay: returnDay})
			}
		}
	}

	return SimulationStepOutput{Visitors: outgoingVisitors, Expatriates: returningExpatriates}
}

// applyHealthSnapshot overwrites p's health state with the snapshot carried
// by a traveling person (a returning expatriate, reflecting however their
// disease progressed while visiting another region, or an incoming visitor).
func applyHealthSnapshot(p *Person, snap IncomingHealth) {
	p.health.status = snap.Status
	p.health.daysInfected = snap.DaysInfected
	p.health.fate = snap.Fate
	if snap.IsParticipant {
		p.ParticipateInSurvey()
	}
}

func snapshotHealth(p *Person) IncomingHealth {
	h := p.Health()
	return IncomingHealth{
		Status:        h.Status(),
		DaysInfected:  h.DaysInfected(),
		Fate:          h.Fate(),
		IsParticipant: p.IsParticipatingInSurvey(),
	}
}

// TimeStep runs one full simulation day: AcceptVisitors, the days-off
// decision, parallel person updates, the contact/transmission phase,
// AdvanceDay, and ReturnVisitors, in that order.
func (s *Simulator) TimeStep(input SimulationStepInput) (SimulationStepOutput, error) {
	if err := s.AcceptVisitors(input); err != nil {
		return SimulationStepOutput{}, err
	}

	isWorkOff, isSchoolOff := s.runDaysOff()
	s.population.ParallelFor(s.numThreads, func(p *Person, _ int) {
		p.Update(isWorkOff, isSchoolOff)
	})

	s.updateClusters()
	s.calendar.AdvanceDay()

	if s.sink != nil {
		s.sink.RecordCases(s.population.GetInfectedCount())
	}

	return s.ReturnVisitors(), nil
}
