package stride

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PersonRecord is one row of a population CSV: age and the five cluster
// ids the person belongs to, 0 meaning "not a member".
type PersonRecord struct {
	Age                   int
	HouseholdID           uint32
	SchoolID              uint32
	WorkID                uint32
	PrimaryCommunityID    uint32
	SecondaryCommunityID  uint32
}

// ParsePopulationCSV reads a population file formatted as a header line
// followed by age, household_id, school_id, work_id, primary_community_id,
// secondary_community_id per line.
func ParsePopulationCSV(path string) ([]PersonRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errConfigIO(path, "population_file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errConfigIO(path, "population_file", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf(InvalidStringParameterError, "population_file", path, "is empty")
	}

	records := make([]PersonRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 6 {
			return nil, fmt.Errorf(InvalidStringParameterError, "population_file", row, fmt.Sprintf("line %d has fewer than 6 fields", i+2))
		}
		age, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf(InvalidStringParameterError, "age", row[0], fmt.Sprintf("line %d: %s", i+2, err))
		}
		ids := make([]uint64, 5)
		for j := 0; j < 5; j++ {
			v, err := strconv.ParseUint(row[j+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf(InvalidStringParameterError, "cluster_id", row[j+1], fmt.Sprintf("line %d: %s", i+2, err))
			}
			ids[j] = v
		}
		records = append(records, PersonRecord{
			Age:                  age,
			HouseholdID:          uint32(ids[0]),
			SchoolID:             uint32(ids[1]),
			WorkID:               uint32(ids[2]),
			PrimaryCommunityID:   uint32(ids[3]),
			SecondaryCommunityID: uint32(ids[4]),
		})
	}
	return records, nil
}

// holidayFile mirrors the holiday JSON tree: a year, and general/school
// month-keyed lists of day-of-month strings.
type holidayFile struct {
	Year    int                 `json:"year"`
	General map[string][]string `json:"general"`
	School  map[string][]string `json:"school"`
}

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseHolidayJSON reads the year/general/school holiday tree and assembles
// two lists of Gregorian dates: general holidays and school holidays.
func ParseHolidayJSON(path string) (general []time.Time, school []time.Time, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errConfigIO(path, "holidays_file", err)
	}
	defer f.Close()

	var parsed holidayFile
	if err := json.NewDecoder(f).Decode(&parsed); err != nil {
		return nil, nil, errConfigIO(path, "holidays_file", err)
	}

	expand := func(byMonth map[string][]string) ([]time.Time, error) {
		var dates []time.Time
		for monthName, days := range byMonth {
			month, ok := monthNumbers[monthName]
			if !ok {
				return nil, fmt.Errorf(InvalidStringParameterError, "holidays_file month", monthName, "not a recognized month name")
			}
			for _, d := range days {
				day, err := strconv.Atoi(d)
				if err != nil {
					return nil, fmt.Errorf(InvalidStringParameterError, "holidays_file day", d, err.Error())
				}
				dates = append(dates, time.Date(parsed.Year, month, day, 0, 0, 0, 0, time.UTC))
			}
		}
		return dates, nil
	}

	general, err = expand(parsed.General)
	if err != nil {
		return nil, nil, err
	}
	school, err = expand(parsed.School)
	if err != nil {
		return nil, nil, err
	}
	return general, school, nil
}

// DiseaseConfig mirrors the disease TOML tree: four cumulative
// distributions plus the affine transmission-rate coefficients.
type DiseaseConfig struct {
	StartInfectiousness []float64 `toml:"start_infectiousness"`
	StartSymptomatic    []float64 `toml:"start_symptomatic"`
	TimeInfectious      []float64 `toml:"time_infectious"`
	TimeSymptomatic     []float64 `toml:"time_symptomatic"`
	B0                  float64   `toml:"b0"`
	B1                  float64   `toml:"b1"`
}

// ToProfile converts the parsed distributions into a DiseaseProfile.
func (c *DiseaseConfig) ToProfile() *DiseaseProfile {
	return &DiseaseProfile{
		StartInfectiousness: CumulativeDistribution(c.StartInfectiousness),
		StartSymptomatic:    CumulativeDistribution(c.StartSymptomatic),
		TimeInfectious:      CumulativeDistribution(c.TimeInfectious),
		TimeSymptomatic:     CumulativeDistribution(c.TimeSymptomatic),
		B0:                  c.B0,
		B1:                  c.B1,
	}
}

// ContactMatrixConfig mirrors the contact-matrix TOML tree: per cluster
// type, a list of per-participant-age contact rates.
type ContactMatrixConfig struct {
	Household          []ContactEntry `toml:"household"`
	School             []ContactEntry `toml:"school"`
	Work               []ContactEntry `toml:"work"`
	PrimaryCommunity   []ContactEntry `toml:"primary_community"`
	SecondaryCommunity []ContactEntry `toml:"secondary_community"`
}

// ContactEntry is one participant-age-class row of a contact matrix
// section: the ages this entry covers and the summed rate over its
// contact entries.
type ContactEntry struct {
	ParticipantAge int     `toml:"participant_age"`
	Rate           float64 `toml:"rate"`
}

// toProfile folds a list of per-age contact entries into a ContactProfile,
// summing rates that share the same participant age.
func toProfile(entries []ContactEntry) ContactProfile {
	var profile ContactProfile
	for _, e := range entries {
		age := EffectiveAge(e.ParticipantAge)
		profile[age] += e.Rate
	}
	return profile
}

// ToProfiles converts the parsed contact matrix into one ContactProfile per
// cluster type, indexed the same way as person.ClusterTypes.
func (c *ContactMatrixConfig) ToProfiles() [numClusterTypes]ContactProfile {
	var profiles [numClusterTypes]ContactProfile
	profiles[Household] = toProfile(c.Household)
	profiles[School] = toProfile(c.School)
	profiles[Work] = toProfile(c.Work)
	profiles[PrimaryCommunity] = toProfile(c.PrimaryCommunity)
	profiles[SecondaryCommunity] = toProfile(c.SecondaryCommunity)
	return profiles
}

// ParseGeoDistributionCSV reads an optional region-assignment file mapping
// household ids to their geographic community. Lines are
// household_id,community_id. The simulator builder does not call it, so
// the result does not affect community clustering.
func ParseGeoDistributionCSV(path string) (map[uint32]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errConfigIO(path, "geodistribution_file", err)
	}
	defer f.Close()

	result := make(map[uint32]uint32)
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue // header
		}
		row := scanner.Text()
		if row == "" {
			continue
		}
		r := csv.NewReader(strings.NewReader(row))
		fields, err := r.Read()
		if err != nil || len(fields) < 2 {
			return nil, fmt.Errorf(InvalidStringParameterError, "geodistribution_file", row, fmt.Sprintf("line %d malformed", line))
		}
		householdID, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf(InvalidStringParameterError, "household_id", fields[0], err.Error())
		}
		communityID, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf(InvalidStringParameterError, "community_id", fields[1], err.Error())
		}
		result[uint32(householdID)] = uint32(communityID)
	}
	return result, nil
}

func errConfigIO(path, key string, err error) error {
	return NewConfigError(path, key, err)
}
