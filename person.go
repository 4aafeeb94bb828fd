package stride

// ClusterType enumerates the kinds of social cluster a person can belong to.
type ClusterType int

const (
	Household ClusterType = iota
	School
	Work
	PrimaryCommunity
	SecondaryCommunity
	numClusterTypes
)

func (t ClusterType) String() string {
	switch t {
	case Household:
		return "household"
	case School:
		return "school"
	case Work:
		return "work"
	case PrimaryCommunity:
		return "primary_community"
	case SecondaryCommunity:
		return "secondary_community"
	default:
		return "unknown"
	}
}

// ClusterTypes lists every cluster type in the fixed phase order the
// simulator processes them in: household, school, work, primary community,
// secondary community.
var ClusterTypes = [...]ClusterType{Household, School, Work, PrimaryCommunity, SecondaryCommunity}

// MaximumAge is the highest age index a contact profile is indexed by;
// older persons use the profile entry for MaximumAge.
const MaximumAge = 80

// MinAdultAge is the age threshold at or below which a person is treated as
// a minor for presence purposes (off-school implies off-work too).
const MinAdultAge = 18

// EffectiveAge caps age at MaximumAge for contact-profile lookups.
func EffectiveAge(age int) int {
	if age > MaximumAge {
		return MaximumAge
	}
	return age
}

// PersonID identifies a person uniquely within a region.
type PersonID uint32

// BeliefPolicy is a per-person extension hook invoked once per Update,
// mirroring original_source's belief_policies/NoBelief.h generic parameter.
// NoBelief is the only implementation wired in: the belief/behaviour
// pathway is inert in the core simulation.
type BeliefPolicy interface {
	// Update runs this person's belief-update step against their current
	// health state.
	Update(h *Health)
	// HasAdopted reports whether this person has adopted whatever belief
	// or behavior the policy tracks.
	HasAdopted() bool
}

// NoBelief is the default BeliefPolicy: it never updates and never reports
// an adopted belief.
type NoBelief struct{}

// Update is a no-op.
func (NoBelief) Update(*Health) {}

// HasAdopted always reports false.
func (NoBelief) HasAdopted() bool { return false }

// Person is a resident or visitor: identity, demographics, cluster
// memberships (0 meaning "not a member of any cluster of this type"),
// per-cluster-type presence flags, health, and a survey-participation flag.
type Person struct {
	id     PersonID
	age    int
	gender byte

	clusterID [numClusterTypes]uint32
	present   [numClusterTypes]bool

	health *Health
	belief BeliefPolicy

	isParticipant bool
}

// NewPerson constructs a Person with the given identity, age and cluster
// memberships, all initially present in every cluster they belong to.
func NewPerson(id PersonID, age int, householdID, schoolID, workID, primaryCommunityID, secondaryCommunityID uint32, fate Fate) *Person {
	p := &Person{
		id:     id,
		age:    age,
		gender: 'M',
		health: NewHealth(fate),
		belief: NoBelief{},
	}
	p.clusterID[Household] = householdID
	p.clusterID[School] = schoolID
	p.clusterID[Work] = workID
	p.clusterID[PrimaryCommunity] = primaryCommunityID
	p.clusterID[SecondaryCommunity] = secondaryCommunityID
	for t := range p.present {
		p.present[t] = true
	}
	return p
}

// ID returns the person's id.
func (p *Person) ID() PersonID { return p.id }

// Age returns the person's age.
func (p *Person) Age() int { return p.age }

// Gender returns the person's gender.
func (p *Person) Gender() byte { return p.gender }

// Health returns the person's disease state machine.
func (p *Person) Health() *Health { return p.health }

// ClusterID returns the id of the cluster of the given type this person
// belongs to, or 0 if they are not a member of any cluster of that type.
func (p *Person) ClusterID(t ClusterType) uint32 { return p.clusterID[t] }

// SetClusterID assigns the cluster id of the given type.
func (p *Person) SetClusterID(t ClusterType, id uint32) { p.clusterID[t] = id }

// IsPresent reports whether the person is present today in clusters of the
// given type.
func (p *Person) IsPresent(t ClusterType) bool { return p.present[t] }

// IsParticipatingInSurvey reports whether this person is a social-contact
// survey participant.
func (p *Person) IsParticipatingInSurvey() bool { return p.isParticipant }

// ParticipateInSurvey marks this person as a survey participant.
func (p *Person) ParticipateInSurvey() { p.isParticipant = true }

// Equal compares persons by id; two otherwise-identical persons with
// different ids are unequal.
func (p *Person) Equal(other *Person) bool {
	if other == nil {
		return false
	}
	return p.id == other.id
}

// Update advances the person's health by one day and recomputes presence
// flags for the day. isWorkOff and isSchoolOff come from the configured
// DaysOffPolicy. If work is off, or the person is a minor and school is off,
// the person withdraws to the primary community and stays home from school,
// work, and the secondary community; otherwise the opposite. Household
// presence is always true.
func (p *Person) Update(isWorkOff, isSchoolOff bool) {
	p.health.Update()
	if p.belief != nil {
		p.belief.Update(p.health)
	}

	p.present[Household] = true

	if isWorkOff || (p.age <= MinAdultAge && isSchoolOff) {
		p.present[School] = false
		p.present[Work] = false
		p.present[SecondaryCommunity] = false
		p.present[PrimaryCommunity] = true
	} else {
		p.present[School] = true
		p.present[Work] = true
		p.present[SecondaryCommunity] = true
		p.present[PrimaryCommunity] = false
	}
}
