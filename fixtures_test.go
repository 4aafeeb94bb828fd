package stride

import (
	"fmt"
	"strings"

	rv "github.com/kentwait/randomvariate"
)

// synthesizePopulationCSV builds a population CSV with numHouseholds
// households, each sized by an independent Binomial(6, 0.5) draw (at least
// one member), every member assigned to one shared school/work/community
// cluster. Mirrors the teacher's own use of randomvariate to parameterize
// synthetic test populations.
func synthesizePopulationCSV(numHouseholds int) string {
	var b strings.Builder
	b.WriteString("age,household_id,school_id,work_id,primary_community_id,secondary_community_id\n")
	for h := 1; h <= numHouseholds; h++ {
		size := rv.Binomial(6, 0.5)
		if size < 1 {
			size = 1
		}
		for i := 0; i < size; i++ {
			age := rv.Poisson(30)
			if age > MaximumAge {
				age = MaximumAge
			}
			fmt.Fprintf(&b, "%d,%d,1,1,1,1\n", age, h)
		}
	}
	return b.String()
}

func constantContactMatrixTOML(rate float64) string {
	var b strings.Builder
	for _, section := range []string{"household", "school", "work", "primary_community", "secondary_community"} {
		fmt.Fprintf(&b, "[[%s]]\nparticipant_age = 0\nrate = %f\n", section, rate)
	}
	return b.String()
}

func degenerateDiseaseTOML() string {
	return `
start_infectiousness = [1.0]
start_symptomatic = [1.0]
time_infectious = [1.0]
time_symptomatic = [1.0]
b0 = 0.0
b1 = 1.0
`
}
