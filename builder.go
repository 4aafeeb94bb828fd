package stride

import (
	"math"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// SimulatorBuilder constructs ready-to-run Simulators from a validated
// RunConfig, following the nine-step construction contract: derive the
// transmission rate, load the population, allocate and populate clusters,
// seed immunity and infection, split per-worker RNGs, install contact
// profiles, and wire in the travel model.
type SimulatorBuilder struct {
	config *RunConfig
	sink   DataLogger
}

// NewSimulatorBuilder returns a builder for the given validated RunConfig.
// sink may be nil; callers that need one DataLogger per region should leave
// it nil here and call Simulator.SetSink after Build returns.
func NewSimulatorBuilder(config *RunConfig, sink DataLogger) *SimulatorBuilder {
	return &SimulatorBuilder{config: config, sink: sink}
}

// Build constructs one Simulator per configured region, wired together by
// a shared airport/route graph.
func (b *SimulatorBuilder) Build() (map[RegionID]*Simulator, error) {
	if !b.config.validated {
		if err := b.config.Validate(); err != nil {
			return nil, errors.Wrap(err, "cannot build from an unvalidated configuration")
		}
	}

	disease, err := b.loadDisease()
	if err != nil {
		return nil, err
	}
	disease.Initialize(b.config.Common.R0)

	profiles, err := b.loadContactProfiles()
	if err != nil {
		return nil, err
	}

	general, school, err := b.loadHolidays()
	if err != nil {
		return nil, err
	}
	startDate, err := parseStartDate(b.config.Common.StartDate)
	if err != nil {
		return nil, err
	}

	daysOff, err := NewDaysOffPolicy(b.config.Common.DaysOffPolicy)
	if err != nil {
		return nil, err
	}

	logMode, err := ParseLogMode(b.config.Log.LogLevel)
	if err != nil {
		return nil, err
	}

	airports, err := buildAirports(b.config.Regions)
	if err != nil {
		return nil, err
	}

	masterRNG := NewRandomStream(b.config.Common.RNGSeed)

	sims := make(map[RegionID]*Simulator, len(b.config.Regions))
	for i := range b.config.Regions {
		region := &b.config.Regions[i]
		sim, err := b.buildRegion(region, disease, profiles, daysOff, logMode, startDate, general, school, airports, masterRNG)
		if err != nil {
			return nil, errors.Wrapf(err, "building region %d", region.RegionID)
		}
		sims[RegionID(region.RegionID)] = sim
	}
	return sims, nil
}

func (b *SimulatorBuilder) loadDisease() (*DiseaseProfile, error) {
	var conf DiseaseConfig
	if _, err := toml.DecodeFile(b.config.Common.DiseaseConfigFile, &conf); err != nil {
		return nil, NewConfigError(b.config.Common.DiseaseConfigFile, "disease_config_file", err)
	}
	return conf.ToProfile(), nil
}

func (b *SimulatorBuilder) loadContactProfiles() ([numClusterTypes]ContactProfile, error) {
	var conf ContactMatrixConfig
	var zero [numClusterTypes]ContactProfile
	if _, err := toml.DecodeFile(b.config.Common.ContactMatrixFile, &conf); err != nil {
		return zero, NewConfigError(b.config.Common.ContactMatrixFile, "age_contact_matrix_file", err)
	}
	return conf.ToProfiles(), nil
}

func (b *SimulatorBuilder) loadHolidays() (general, school []time.Time, err error) {
	if b.config.Common.HolidaysFile == "" {
		return nil, nil, nil
	}
	return ParseHolidayJSON(b.config.Common.HolidaysFile)
}

func parseStartDate(s string) (time.Time, error) {
	return time.Parse(dateKeyLayout, s)
}

// buildAirports constructs every configured region's airports with their
// routes resolved against the target airport's config name. Names are
// looked up across all regions, so a route may target another region's
// airport, and an airport name used twice anywhere in the run is rejected.
func buildAirports(regions []RegionConfig) (map[RegionID][]*Airport, error) {
	byRegion := make(map[RegionID][]*Airport, len(regions))
	byName := make(map[string]*Airport)

	for i := range regions {
		region := &regions[i]
		regionID := RegionID(region.RegionID)
		for _, ac := range region.Airports {
			airport := &Airport{RegionID: regionID, PassengerFraction: ac.PassengerFraction}
			byRegion[regionID] = append(byRegion[regionID], airport)
			if _, exists := byName[ac.Name]; exists {
				return nil, errors.Errorf("duplicate airport name %q", ac.Name)
			}
			byName[ac.Name] = airport
		}
	}

	for i := range regions {
		region := &regions[i]
		airports := byRegion[RegionID(region.RegionID)]
		for j, ac := range region.Airports {
			for _, rc := range ac.Routes {
				target, ok := byName[rc.Target]
				if !ok {
					return nil, errors.Errorf("route targets unknown airport %q", rc.Target)
				}
				airports[j].Routes = append(airports[j].Routes, AirRoute{
					PassengerFraction: rc.PassengerFraction,
					Target:            target,
				})
			}
		}
	}

	var all []*Airport
	for _, list := range byRegion {
		all = append(all, list...)
	}
	flat := make(map[RegionID][]*Airport, len(byRegion))
	for id := range byRegion {
		flat[id] = all
	}
	return flat, nil
}

func (b *SimulatorBuilder) buildRegion(
	region *RegionConfig,
	disease *DiseaseProfile,
	profiles [numClusterTypes]ContactProfile,
	daysOff DaysOffPolicy,
	logMode LogMode,
	startDate time.Time,
	generalHolidays, schoolHolidays []time.Time,
	airports map[RegionID][]*Airport,
	masterRNG *RandomStream,
) (*Simulator, error) {
	records, err := ParsePopulationCSV(region.PopulationFile)
	if err != nil {
		return nil, err
	}

	sim := &Simulator{
		RegionID:       RegionID(region.RegionID),
		calendar:       NewCalendar(startDate, generalHolidays, schoolHolidays),
		daysOff:        daysOff,
		population:     NewPopulation(),
		visitors:       NewVisitorJournal(),
		expatriates:    NewExpatriateJournal(),
		profiles:       profiles,
		disease:        disease,
		numThreads:     region.NumThreads,
		logMode:        logMode,
		trackIndexCase: b.config.Common.TrackIndexCase,
		sink:           b.sink,
		numDays:        b.config.Common.NumberOfDays,
	}

	b.allocateClusters(sim, records)
	b.populateClusters(sim, records)

	sim.travel = NewRegionTravel(sim.RegionID, region.TravelFraction, region.MinTripDuration, region.MaxTripDuration, airports[sim.RegionID])

	regionRNGSeed := masterRNG.NextUint(math.MaxUint32)
	regionRNG := NewRandomStream(regionRNGSeed)
	travelStream := regionRNG.Split(region.NumThreads+1, region.NumThreads)
	if err := sim.travel.BuildDestinationDistribution(travelStream); err != nil {
		return nil, err
	}
	sim.travelRNG = travelStream

	sim.contactHandlers = make([]*ContactHandler, region.NumThreads)
	for w := 0; w < region.NumThreads; w++ {
		sim.contactHandlers[w] = NewContactHandler(regionRNG.Split(region.NumThreads+1, w))
	}

	b.seedImmunity(sim, regionRNG)
	b.seedInfection(sim, regionRNG)

	return sim, nil
}

// allocateClusters pre-creates, for each cluster type, every cluster id
// from 0 (a permanently-empty placeholder meaning "not a member") through
// the highest id referenced by any person record.
func (b *SimulatorBuilder) allocateClusters(sim *Simulator, records []PersonRecord) {
	var maxID [numClusterTypes]uint32
	for _, r := range records {
		maxID[Household] = maxUint32(maxID[Household], r.HouseholdID)
		maxID[School] = maxUint32(maxID[School], r.SchoolID)
		maxID[Work] = maxUint32(maxID[Work], r.WorkID)
		maxID[PrimaryCommunity] = maxUint32(maxID[PrimaryCommunity], r.PrimaryCommunityID)
		maxID[SecondaryCommunity] = maxUint32(maxID[SecondaryCommunity], r.SecondaryCommunityID)
	}
	for _, t := range ClusterTypes {
		sim.clusters[t] = newClusterVector()
		for id := uint32(0); id <= maxID[t]; id++ {
			sim.clusters[t].add(NewCluster(ClusterID(id), t, sim.profiles[t]))
		}
	}
	sim.nextHousehold = ClusterID(maxID[Household] + 1)
}

func maxUint32(a, b uint32) uint32 {
	if b > a {
		return b
	}
	return a
}

// populateClusters creates one Person per population record, with a fresh
// susceptible Health, and inserts it into the population and every cluster
// it belongs to.
func (b *SimulatorBuilder) populateClusters(sim *Simulator, records []PersonRecord) {
	for i, r := range records {
		id := PersonID(i + 1)
		p := NewPerson(id, r.Age, r.HouseholdID, r.SchoolID, r.WorkID, r.PrimaryCommunityID, r.SecondaryCommunityID, Fate{})
		sim.population.Emplace(p)
		sim.addPersonToClusters(p)
	}
}

// seedImmunity marks floor(population_size * immunity_rate) susceptible
// residents immune.
func (b *SimulatorBuilder) seedImmunity(sim *Simulator, rng *RandomStream) {
	n := int(math.Floor(float64(sim.population.Size()) * b.config.Common.ImmunityRate))
	if n <= 0 {
		return
	}
	susceptible := func(p *Person) bool { return p.Health().IsSusceptible() }
	persons, err := sim.population.GetRandomPersonsMatching(rng, n, susceptible)
	if err != nil {
		persons, _ = sim.population.GetRandomPersonsMatching(rng, len(persons), susceptible)
	}
	for _, p := range persons {
		p.Health().SetImmune()
	}
}

// seedInfection starts infection in floor(population_size * seeding_rate)
// susceptible residents, each assigned a freshly-sampled Fate.
func (b *SimulatorBuilder) seedInfection(sim *Simulator, rng *RandomStream) {
	n := int(math.Floor(float64(sim.population.Size()) * b.config.Common.SeedingRate))
	if n <= 0 {
		return
	}
	susceptible := func(p *Person) bool { return p.Health().IsSusceptible() }
	persons, err := sim.population.GetRandomPersonsMatching(rng, n, susceptible)
	if err != nil {
		persons, _ = sim.population.GetRandomPersonsMatching(rng, len(persons), susceptible)
	}
	for _, p := range persons {
		p.health.fate = sim.disease.SampleFate(rng)
		_ = p.Health().StartInfection()
	}
}
