package stride

// ClusterID identifies a cluster of a given type within a region. 0 is
// reserved to mean "not a member of any cluster of this type" on a Person.
type ClusterID uint32

type clusterMember struct {
	person  *Person
	present bool
}

// Cluster is a typed group of persons who may make contact on a given day.
// Members are kept in a vector partitioned into three contiguous regions:
// [0, numCases) non-susceptible and not immune ("cases"), [numCases,
// indexImmune) susceptible, [indexImmune, end) immune.
type Cluster struct {
	id          ClusterID
	clusterType ClusterType
	members     []clusterMember
	indexImmune int
	profile     ContactProfile
}

// NewCluster constructs an empty cluster of the given id, type and contact
// profile.
func NewCluster(id ClusterID, clusterType ClusterType, profile ContactProfile) *Cluster {
	return &Cluster{id: id, clusterType: clusterType, profile: profile}
}

// ID returns the cluster's stable id.
func (c *Cluster) ID() ClusterID { return c.id }

// Type returns the cluster's type tag.
func (c *Cluster) Type() ClusterType { return c.clusterType }

// Size returns the number of members.
func (c *Cluster) Size() int { return len(c.members) }

// IndexImmune returns the index of the first immune member.
func (c *Cluster) IndexImmune() int { return c.indexImmune }

// AddPerson inserts p preserving the three-way partition: an immune person
// is appended to the immune suffix (indexImmune unchanged); any other
// person is inserted at indexImmune (the end of the susceptible block),
// growing that block by one.
func (c *Cluster) AddPerson(p *Person) {
	present := p.IsPresent(c.clusterType)
	if p.Health().IsImmune() {
		c.members = append(c.members, clusterMember{person: p, present: present})
		return
	}
	c.members = append(c.members, clusterMember{})
	copy(c.members[c.indexImmune+1:], c.members[c.indexImmune:])
	c.members[c.indexImmune] = clusterMember{person: p, present: present}
	c.indexImmune++
}

// RemovePerson finds p's position, erases it, and, if that position was
// before indexImmune, decrements indexImmune so the partition stays
// consistent.
func (c *Cluster) RemovePerson(p *Person) {
	for i, m := range c.members {
		if m.person.Equal(p) {
			c.members = append(c.members[:i], c.members[i+1:]...)
			if i < c.indexImmune {
				c.indexImmune--
			}
			return
		}
	}
}

// SortMembers walks [0, indexImmune): members that have become immune are
// swapped to the end of that range and indexImmune shrinks past them;
// members that are not susceptible (but not immune) are swapped into the
// [0, numCases) prefix. It returns whether any such non-susceptible member
// is currently infectious, and the resulting numCases. SortMembers
// re-establishes the three-region partition and is idempotent: calling it
// again immediately returns the same numCases.
func (c *Cluster) SortMembers() (anyInfectious bool, numCases int) {
	i := 0
	for i < c.indexImmune {
		m := c.members[i]
		if m.person.Health().IsImmune() {
			swapped := false
			newPlace := c.indexImmune - 1
			c.indexImmune--
			for !swapped && newPlace > i {
				if c.members[newPlace].person.Health().IsImmune() {
					c.indexImmune--
					newPlace--
				} else {
					c.members[i], c.members[newPlace] = c.members[newPlace], c.members[i]
					swapped = true
				}
			}
			continue
		}
		if !m.person.Health().IsSusceptible() {
			if !anyInfectious && m.person.Health().IsInfectious() {
				anyInfectious = true
			}
			if i > numCases {
				c.members[i], c.members[numCases] = c.members[numCases], c.members[i]
			}
			numCases++
		}
		i++
	}
	return anyInfectious, numCases
}

// UpdateMemberPresence refreshes each member's cached present-today flag
// from the person's current presence-in-this-cluster-type flag. This
// decouples the contact kernel from the person-object updates that happen
// earlier in the day.
func (c *Cluster) UpdateMemberPresence() {
	for i := range c.members {
		c.members[i].present = c.members[i].person.IsPresent(c.clusterType)
	}
}

// memberAt returns the person and present flag at index i.
func (c *Cluster) memberAt(i int) (*Person, bool) {
	m := c.members[i]
	return m.person, m.present
}

// GetContactRate returns the per-person contact rate inside this cluster for
// an infectious person p: profile[effective_age(p)] / size.
func (c *Cluster) GetContactRate(p *Person) float64 {
	if len(c.members) == 0 {
		return 0
	}
	return c.profile.RateAt(p.Age()) / float64(len(c.members))
}

// clusterVector is one cluster type's ordered collection: a vector of
// clusters in ascending-id insertion order, plus an id index for O(1)
// lookup. A Go map's iteration order is randomized, so a plain
// map[ClusterID]*Cluster cannot back a per-worker parallel pass without
// making the draw sequence on each worker's RNG stream nondeterministic
// between runs; keeping clusters in a fixed vector, per spec.md §4.J's
// "five vectors of clusters", makes that sequence a pure function of
// (seed, num_threads).
type clusterVector struct {
	list  []*Cluster
	index map[ClusterID]int
}

func newClusterVector() *clusterVector {
	return &clusterVector{index: make(map[ClusterID]int)}
}

// get returns the cluster with the given id, if present.
func (v *clusterVector) get(id ClusterID) (*Cluster, bool) {
	i, ok := v.index[id]
	if !ok {
		return nil, false
	}
	return v.list[i], true
}

// add appends c, indexed by its id. Ids must be added in ascending order
// (as allocateClusters and generateHousehold both do) for the vector's
// iteration order to stay the deterministic ascending-id order spec.md
// describes.
func (v *clusterVector) add(c *Cluster) {
	v.index[c.ID()] = len(v.list)
	v.list = append(v.list, c)
}

// len returns the number of clusters in the vector.
func (v *clusterVector) len() int { return len(v.list) }
