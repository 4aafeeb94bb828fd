package stride

import (
	"fmt"
	"time"
)

// Calendar holds the current simulation day index and Gregorian date, plus
// the holiday/school-holiday sets supplied by the holiday-file collaborator.
// It answers weekend/holiday/school-holiday queries in O(1) and steps
// forward by exactly one day per call to AdvanceDay.
type Calendar struct {
	day            int
	date           time.Time
	holidays       map[string]bool
	schoolHolidays map[string]bool
}

const dateKeyLayout = "2006-01-02"

// NewCalendar constructs a Calendar starting at day 0 on startDate, with the
// given general and school holiday dates.
func NewCalendar(startDate time.Time, holidays, schoolHolidays []time.Time) *Calendar {
	c := &Calendar{
		day:            0,
		date:           startDate,
		holidays:       make(map[string]bool, len(holidays)),
		schoolHolidays: make(map[string]bool, len(schoolHolidays)),
	}
	for _, d := range holidays {
		c.holidays[d.Format(dateKeyLayout)] = true
	}
	for _, d := range schoolHolidays {
		c.schoolHolidays[d.Format(dateKeyLayout)] = true
	}
	return c
}

// Day returns the current day index, starting at 0.
func (c *Calendar) Day() int { return c.day }

// Date returns the current Gregorian date.
func (c *Calendar) Date() time.Time { return c.date }

// IsWeekend reports whether the current date falls on a Saturday or Sunday.
func (c *Calendar) IsWeekend() bool {
	wd := c.date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the current date is a general holiday.
func (c *Calendar) IsHoliday() bool {
	return c.holidays[c.date.Format(dateKeyLayout)]
}

// IsSchoolHoliday reports whether the current date is a school holiday.
func (c *Calendar) IsSchoolHoliday() bool {
	return c.schoolHolidays[c.date.Format(dateKeyLayout)]
}

// AdvanceDay increments the day counter and date by exactly one day.
func (c *Calendar) AdvanceDay() {
	c.day++
	c.date = c.date.AddDate(0, 0, 1)
}

// DaysOffPolicy decides whether work and school are off on the current
// calendar day. Four policies are selectable by configuration: Standard,
// All, None and School.
type DaysOffPolicy interface {
	IsWorkOff(cal *Calendar) bool
	IsSchoolOff(cal *Calendar) bool
}

// DaysOffStandard applies weekends and holidays to work, and additionally
// school holidays to school.
type DaysOffStandard struct{}

func (DaysOffStandard) IsWorkOff(cal *Calendar) bool { return cal.IsWeekend() || cal.IsHoliday() }

func (d DaysOffStandard) IsSchoolOff(cal *Calendar) bool {
	return d.IsWorkOff(cal) || cal.IsSchoolHoliday()
}

// DaysOffAll treats every day as off for both work and school.
type DaysOffAll struct{}

func (DaysOffAll) IsWorkOff(*Calendar) bool   { return true }
func (DaysOffAll) IsSchoolOff(*Calendar) bool { return true }

// DaysOffNone treats every day as a normal day for both work and school.
type DaysOffNone struct{}

func (DaysOffNone) IsWorkOff(*Calendar) bool   { return false }
func (DaysOffNone) IsSchoolOff(*Calendar) bool { return false }

// DaysOffSchool keeps schools permanently closed while work follows the
// standard weekend/holiday rule.
type DaysOffSchool struct{}

func (DaysOffSchool) IsWorkOff(cal *Calendar) bool { return cal.IsWeekend() || cal.IsHoliday() }

func (DaysOffSchool) IsSchoolOff(*Calendar) bool { return true }

// NewDaysOffPolicy resolves a policy by configuration name.
func NewDaysOffPolicy(name string) (DaysOffPolicy, error) {
	switch name {
	case "", "standard", "Standard":
		return DaysOffStandard{}, nil
	case "all", "All":
		return DaysOffAll{}, nil
	case "none", "None":
		return DaysOffNone{}, nil
	case "school", "School":
		return DaysOffSchool{}, nil
	default:
		return nil, fmt.Errorf(UnknownDaysOffPolicyError, name)
	}
}
