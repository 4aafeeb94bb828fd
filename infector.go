package stride

import "fmt"

// LogMode selects what the Infector kernel records as its observable side
// effect besides health-state mutation.
type LogMode int

const (
	LogNone LogMode = iota
	LogTransmissions
	LogContacts
)

func (m LogMode) String() string {
	switch m {
	case LogNone:
		return "None"
	case LogTransmissions:
		return "Transmissions"
	case LogContacts:
		return "Contacts"
	default:
		return "Unknown"
	}
}

// ParseLogMode resolves a LogMode by configuration name.
func ParseLogMode(name string) (LogMode, error) {
	switch name {
	case "None", "none", "":
		return LogNone, nil
	case "Transmissions", "transmissions":
		return LogTransmissions, nil
	case "Contacts", "contacts":
		return LogContacts, nil
	default:
		return LogNone, fmt.Errorf(UnknownLogModeError, name)
	}
}

// EventSink receives the Infector kernel's log lines, one call per event.
type EventSink interface {
	LogTransmission(infecterID, infectedID PersonID, clusterType ClusterType, day int)
	LogContact(p1 *Person, p2 *Person, clusterType ClusterType, day int)
}

// Infector runs the contact/transmission kernel for one cluster per day. It
// is parameterized, once per simulator day, by a log mode and a
// track-index-case flag; Execute dispatches to one of six kernel variants
// accordingly.
type Infector struct {
	LogMode        LogMode
	TrackIndexCase bool
}

// Execute runs one day's contact/transmission pass over cluster, using
// disease's transmission rate, handler's per-worker RNG, sink for log
// output (may be nil when LogMode is LogNone), and day as the simulation
// day stamped into log lines.
func (inf Infector) Execute(cluster *Cluster, disease *DiseaseProfile, handler *ContactHandler, sink EventSink, day int) {
	if inf.LogMode == LogContacts {
		inf.executeContacts(cluster, handler, sink, day)
		return
	}
	inf.executeTransmissions(cluster, disease, handler, sink, day)
}

// executeTransmissions implements the standard epidemiological path, shared
// by LogNone and LogTransmissions, each optionally combined with
// track-index-case.
func (inf Infector) executeTransmissions(cluster *Cluster, disease *DiseaseProfile, handler *ContactHandler, sink EventSink, day int) {
	anyInfectious, numCases := cluster.SortMembers()
	if !anyInfectious {
		return
	}
	cluster.UpdateMemberPresence()

	cType := cluster.Type()
	indexImmune := cluster.IndexImmune()
	transmissionRate := disease.TransmissionRate()

	for i := 0; i < numCases; i++ {
		p1, present1 := cluster.memberAt(i)
		if !present1 || !p1.Health().IsInfectious() {
			continue
		}
		contactRate := cluster.GetContactRate(p1)
		for j := numCases; j < indexImmune; j++ {
			p2, present2 := cluster.memberAt(j)
			if !present2 {
				continue
			}
			if handler.HasContactAndTransmission(contactRate, transmissionRate) {
				if inf.LogMode == LogTransmissions && sink != nil {
					sink.LogTransmission(p1.ID(), p2.ID(), cType, day)
				}
				_ = p2.Health().StartInfection()
				if inf.TrackIndexCase {
					_ = p2.Health().StopInfection()
				}
			}
		}
	}
}

// executeContacts implements the social-contact-survey mode: every ordered
// pair (i, j), i != j, where member i is a survey participant and present,
// is tested for contact; transmission is never computed in this mode.
func (inf Infector) executeContacts(cluster *Cluster, handler *ContactHandler, sink EventSink, day int) {
	cluster.UpdateMemberPresence()
	cType := cluster.Type()
	n := cluster.Size()

	for i := 0; i < n; i++ {
		p1, present1 := cluster.memberAt(i)
		if !present1 || !p1.IsParticipatingInSurvey() {
			continue
		}
		contactRate := cluster.GetContactRate(p1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			p2, present2 := cluster.memberAt(j)
			if !present2 {
				continue
			}
			if handler.HasContact(contactRate) {
				if sink != nil {
					sink.LogContact(p1, p2, cType, day)
				}
			}
		}
	}
}

// FormatTransmissionLine renders the [TRAN] log line contract:
// infecter_id infected_id cluster_type simulation_day.
func FormatTransmissionLine(infecterID, infectedID PersonID, clusterType ClusterType, day int) string {
	return fmt.Sprintf("[TRAN] %d %d %s %d", infecterID, infectedID, clusterType, day)
}

// FormatContactLine renders the [CONT] log line contract:
// p1_id p1_age p2_age home? work? school? prim_comm? sec_comm? simulation_day,
// each flag 1 iff the cluster is of that type.
func FormatContactLine(p1, p2 *Person, clusterType ClusterType, day int) string {
	flag := func(t ClusterType) int {
		if clusterType == t {
			return 1
		}
		return 0
	}
	return fmt.Sprintf("[CONT] %d %d %d %d %d %d %d %d %d",
		p1.ID(), p1.Age(), p2.Age(),
		flag(Household), flag(Work), flag(School), flag(PrimaryCommunity), flag(SecondaryCommunity),
		day)
}
