package stride

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// CommonConfig is identical across every region of one run: the pieces of
// configuration that do not vary region to region.
type CommonConfig struct {
	RNGSeed                  uint64  `toml:"rng_seed"`
	R0                       float64 `toml:"r0"`
	SeedingRate              float64 `toml:"seeding_rate"`
	ImmunityRate             float64 `toml:"immunity_rate"`
	NumberOfDays             int     `toml:"number_of_days"`
	DiseaseConfigFile        string  `toml:"disease_config_file"`
	NumberOfSurveyParticipants int   `toml:"number_of_survey_participants"`
	StartDate                string  `toml:"start_date"`
	HolidaysFile             string  `toml:"holidays_file"`
	ContactMatrixFile        string  `toml:"age_contact_matrix_file"`
	TrackIndexCase           bool    `toml:"track_index_case"`
	DaysOffPolicy            string  `toml:"days_off_policy"`

	validated bool
}

// Validate checks the CommonConfig's parameter values for well-formedness,
// independent of any file I/O.
func (c *CommonConfig) Validate() error {
	if c.R0 <= 0 {
		return fmt.Errorf(InvalidFloatParameterError, "r0", c.R0, "must be greater than 0")
	}
	if c.SeedingRate < 0 || c.SeedingRate > 1 {
		return fmt.Errorf(InvalidFloatParameterError, "seeding_rate", c.SeedingRate, "must be within [0,1]")
	}
	if c.ImmunityRate < 0 || c.ImmunityRate > 1 {
		return fmt.Errorf(InvalidFloatParameterError, "immunity_rate", c.ImmunityRate, "must be within [0,1]")
	}
	if c.NumberOfDays < 1 {
		return fmt.Errorf(InvalidIntParameterError, "number_of_days", c.NumberOfDays, "must be greater than or equal to 1")
	}
	if c.NumberOfSurveyParticipants < 0 {
		return fmt.Errorf(InvalidIntParameterError, "number_of_survey_participants", c.NumberOfSurveyParticipants, "cannot be negative")
	}
	if _, err := time.Parse(dateKeyLayout, c.StartDate); err != nil {
		return fmt.Errorf(InvalidStringParameterError, "start_date", c.StartDate, "must be formatted YYYY-MM-DD")
	}
	if c.DaysOffPolicy == "" {
		c.DaysOffPolicy = "standard"
	}
	if _, err := NewDaysOffPolicy(c.DaysOffPolicy); err != nil {
		return err
	}
	c.validated = true
	return nil
}

// LogConfig controls the engine's observable output: where it writes, and
// what level of contact/transmission detail it records.
type LogConfig struct {
	OutputPrefix       string `toml:"output_prefix"`
	GeneratePersonFile bool   `toml:"generate_person_file"`
	LogLevel           string `toml:"log_level"`

	validated bool
}

// Validate checks that LogLevel names a recognized LogMode.
func (c *LogConfig) Validate() error {
	if c.OutputPrefix == "" {
		return fmt.Errorf(InvalidStringParameterError, "output_prefix", c.OutputPrefix, "cannot be empty")
	}
	if _, err := ParseLogMode(c.LogLevel); err != nil {
		return err
	}
	c.validated = true
	return nil
}

// AirportConfig mirrors one airport node of the travel-model tree: its
// name, the fraction of its region's travelers that use it, and its
// outgoing routes.
type AirportConfig struct {
	Name              string        `toml:"name"`
	PassengerFraction float64       `toml:"passenger_fraction"`
	Routes            []RouteConfig `toml:"route"`
}

// RouteConfig mirrors one route node: the fraction of the source airport's
// passengers who take it, and the target airport's name.
type RouteConfig struct {
	PassengerFraction float64 `toml:"passenger_fraction"`
	Target            string  `toml:"target_airport"`
}

// RegionConfig is one region's configuration: its id, its population and
// optional auxiliary data sources, its travel fraction, and its airports.
type RegionConfig struct {
	RegionID              uint32          `toml:"region_id"`
	PopulationFile        string          `toml:"population_file"`
	GeoDistributionFile   string          `toml:"geodistribution_file"`
	ReferenceHouseholdsFile string        `toml:"reference_households_file"`
	TravelFraction        float64         `toml:"travel_fraction"`
	MinTripDuration       int             `toml:"min_trip_duration"`
	MaxTripDuration       int             `toml:"max_trip_duration"`
	NumThreads            int             `toml:"num_threads"`
	Airports              []AirportConfig `toml:"airport"`

	validated bool
}

// Validate checks a RegionConfig's parameter values.
func (c *RegionConfig) Validate() error {
	if c.PopulationFile == "" {
		return fmt.Errorf(InvalidStringParameterError, "population_file", c.PopulationFile, "cannot be empty")
	}
	if c.TravelFraction < 0 || c.TravelFraction > 1 {
		return fmt.Errorf(InvalidFloatParameterError, "travel_fraction", c.TravelFraction, "must be within [0,1]")
	}
	if c.MaxTripDuration < c.MinTripDuration {
		return fmt.Errorf(InvalidIntParameterError, "max_trip_duration", c.MaxTripDuration, "must be greater than or equal to min_trip_duration")
	}
	if c.NumThreads < 1 {
		c.NumThreads = 1
	}
	c.validated = true
	return nil
}

// RunConfig is the top-level configuration tree for one run: the common
// parameters, the logging configuration, and one or more regions.
type RunConfig struct {
	Common  CommonConfig   `toml:"run"`
	Log     LogConfig      `toml:"logging"`
	Regions []RegionConfig `toml:"region"`

	validated bool
}

// Validate validates every section of the run configuration, and requires
// at least one region.
func (c *RunConfig) Validate() error {
	if err := c.Common.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if len(c.Regions) == 0 {
		return fmt.Errorf(InvalidIntParameterError, "region", 0, "at least one region must be configured")
	}
	seen := make(map[uint32]bool, len(c.Regions))
	for i := range c.Regions {
		if err := c.Regions[i].Validate(); err != nil {
			return err
		}
		id := c.Regions[i].RegionID
		if seen[id] {
			return fmt.Errorf(IntKeyExistsError, id)
		}
		seen[id] = true
	}
	c.validated = true
	return nil
}

// LoadRunConfig parses a TOML run configuration file.
func LoadRunConfig(path string) (*RunConfig, error) {
	var conf RunConfig
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, NewConfigError(path, "run", err)
	}
	return &conf, nil
}
