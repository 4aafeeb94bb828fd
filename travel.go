package stride

import "sort"

// RegionID identifies a region in a multi-region simulation.
type RegionID uint32

// AirRoute is a single route in the airport network: the fraction of
// passengers from the source airport that take it, and the target airport.
type AirRoute struct {
	PassengerFraction float64
	Target            *Airport
}

// Airport describes an airport: the region it serves, the fraction of that
// region's travelers who use it, and its outgoing routes.
type Airport struct {
	RegionID          RegionID
	PassengerFraction float64
	Routes            []AirRoute
}

// RegionTravel is one region's travel model: its travel_fraction, its local
// airports, the set of source regions with routes incoming to one of those
// airports, and the min/max trip duration.
type RegionTravel struct {
	RegionID       RegionID
	TravelFraction float64
	LocalAirports  []*Airport
	IncomingFrom   map[RegionID]bool
	MinDuration    int
	MaxDuration    int

	destinations     []RegionID
	destinationAlias *AliasSampler
}

// NewRegionTravel builds a RegionTravel for regionID out of the full airport
// set, deriving local airports and incoming-route source regions the same
// way the original travel model's constructor does: an airport belongs to
// the region if its RegionID matches; otherwise, any of its routes that
// target a local airport marks its own region as an incoming-route source.
func NewRegionTravel(regionID RegionID, travelFraction float64, minDuration, maxDuration int, allAirports []*Airport) *RegionTravel {
	rt := &RegionTravel{
		RegionID:       regionID,
		TravelFraction: travelFraction,
		MinDuration:    minDuration,
		MaxDuration:    maxDuration,
		IncomingFrom:   make(map[RegionID]bool),
	}
	localSet := make(map[*Airport]bool)
	for _, a := range allAirports {
		if a.RegionID == regionID {
			rt.LocalAirports = append(rt.LocalAirports, a)
			localSet[a] = true
		}
	}
	for _, a := range allAirports {
		if a.RegionID == regionID {
			continue
		}
		for _, route := range a.Routes {
			if route.Target != nil && route.Target.RegionID == regionID {
				rt.IncomingFrom[a.RegionID] = true
			}
		}
	}
	return rt
}

// BuildDestinationDistribution computes, from the region's local airports,
// the per-destination-region weight vector: each route contributes
// airport.passenger_fraction * route.passenger_fraction /
// sum(route.passenger_fraction over that airport) to its target region's
// weight, and feeds the result into an alias sampler for O(1) destination
// sampling.
func (rt *RegionTravel) BuildDestinationDistribution(rng *RandomStream) error {
	weights := make(map[RegionID]float64)
	for _, a := range rt.LocalAirports {
		var routeSum float64
		for _, r := range a.Routes {
			routeSum += r.PassengerFraction
		}
		if routeSum <= 0 {
			continue
		}
		for _, r := range a.Routes {
			if r.Target == nil {
				continue
			}
			weights[r.Target.RegionID] += a.PassengerFraction * r.PassengerFraction / routeSum
		}
	}
	if len(weights) == 0 {
		rt.destinations = nil
		rt.destinationAlias = nil
		return nil
	}
	ids := make([]RegionID, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	w := make([]float64, len(ids))
	for i, id := range ids {
		w[i] = weights[id]
	}
	sampler, err := NewAliasSampler(w, rng)
	if err != nil {
		return err
	}
	rt.destinations = ids
	rt.destinationAlias = sampler
	return nil
}

// HasDestinations reports whether this region has any outgoing routes at
// all; a region with none dispatches zero outbound travelers regardless of
// travel_fraction.
func (rt *RegionTravel) HasDestinations() bool {
	return rt.destinationAlias != nil && len(rt.destinations) > 0
}

// SampleDestination draws one destination region from the alias-weighted
// distribution. Callers must check HasDestinations first.
func (rt *RegionTravel) SampleDestination() RegionID {
	return rt.destinations[rt.destinationAlias.Next()]
}
