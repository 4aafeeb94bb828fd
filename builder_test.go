package stride

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBuilderFixtures(t *testing.T, numHouseholds int) (popPath, diseasePath, contactsPath string) {
	t.Helper()
	dir := t.TempDir()

	popPath = filepath.Join(dir, "pop.csv")
	if err := os.WriteFile(popPath, []byte(synthesizePopulationCSV(numHouseholds)), 0644); err != nil {
		t.Fatalf("writing population fixture: %s", err)
	}

	diseasePath = filepath.Join(dir, "disease.toml")
	if err := os.WriteFile(diseasePath, []byte(degenerateDiseaseTOML()), 0644); err != nil {
		t.Fatalf("writing disease fixture: %s", err)
	}

	contactsPath = filepath.Join(dir, "contacts.toml")
	if err := os.WriteFile(contactsPath, []byte(constantContactMatrixTOML(5.0)), 0644); err != nil {
		t.Fatalf("writing contact matrix fixture: %s", err)
	}
	return
}

func singleRegionConfig(t *testing.T, numHouseholds int) *RunConfig {
	t.Helper()
	popPath, diseasePath, contactsPath := writeBuilderFixtures(t, numHouseholds)

	conf := &RunConfig{
		Common: CommonConfig{
			RNGSeed:           1,
			R0:                2.0,
			SeedingRate:       0.1,
			ImmunityRate:      0.1,
			NumberOfDays:      10,
			DiseaseConfigFile: diseasePath,
			StartDate:         "2020-01-01",
			ContactMatrixFile: contactsPath,
			DaysOffPolicy:     "none",
		},
		Log: LogConfig{OutputPrefix: "out", LogLevel: "none"},
		Regions: []RegionConfig{
			{
				RegionID:        1,
				PopulationFile:  popPath,
				TravelFraction:  0,
				MinTripDuration: 1,
				MaxTripDuration: 2,
				NumThreads:      2,
			},
		},
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "validating the fixture run config", err)
	}
	return conf
}

func TestSimulatorBuilderBuildSingleRegion(t *testing.T) {
	conf := singleRegionConfig(t, 40)
	builder := NewSimulatorBuilder(conf, nil)

	sims, err := builder.Build()
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "building simulators from a well-formed config", err)
	}
	if got, want := len(sims), 1; got != want {
		t.Fatalf(UnequalIntParameterError, "len(sims)", want, got)
	}

	sim, ok := sims[RegionID(1)]
	if !ok {
		t.Fatalf("expected a simulator for region 1")
	}
	if sim.Population().Size() == 0 {
		t.Fatalf("expected a non-empty population after Build")
	}
	if sim.Population().GetInfectedCount() == 0 {
		t.Errorf("expected seedInfection to infect at least one person with a 0.1 seeding rate")
	}

	immune := 0
	sim.Population().Each(func(p *Person) {
		if p.Health().IsImmune() {
			immune++
		}
	})
	if immune == 0 {
		t.Errorf("expected seedImmunity to immunize at least one person with a 0.1 immunity rate")
	}
}

func TestSimulatorBuilderBuildUnvalidatedConfigIsValidated(t *testing.T) {
	conf := singleRegionConfig(t, 10)
	conf.validated = false // Build should validate on our behalf
	builder := NewSimulatorBuilder(conf, nil)
	if _, err := builder.Build(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "building from an unvalidated-but-well-formed config", err)
	}
}

func TestSimulatorBuilderBuildRejectsDuplicateAirportNames(t *testing.T) {
	conf := singleRegionConfig(t, 10)
	conf.Regions = append(conf.Regions, RegionConfig{
		RegionID:        2,
		PopulationFile:  conf.Regions[0].PopulationFile,
		MinTripDuration: 1,
		MaxTripDuration: 2,
		NumThreads:      1,
		Airports:        []AirportConfig{{Name: "hub", PassengerFraction: 1}},
	})
	conf.Regions[0].Airports = []AirportConfig{{Name: "hub", PassengerFraction: 1}}
	if err := conf.Validate(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "validating a two-region config", err)
	}

	builder := NewSimulatorBuilder(conf, nil)
	if _, err := builder.Build(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "building a config with two identically-named airports")
	}
}

func TestSimulatorBuilderBuildRejectsUnknownRouteTarget(t *testing.T) {
	conf := singleRegionConfig(t, 10)
	conf.Regions[0].Airports = []AirportConfig{{
		Name:              "hub",
		PassengerFraction: 1,
		Routes:            []RouteConfig{{PassengerFraction: 1, Target: "nowhere"}},
	}}
	if err := conf.Validate(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "validating a config with an airport route", err)
	}

	builder := NewSimulatorBuilder(conf, nil)
	if _, err := builder.Build(); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "building a config whose route targets an unknown airport")
	}
}
