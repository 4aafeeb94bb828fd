package stride

// ContactProfile is a per-cluster-type mean-contacts-per-day table, indexed
// by effective age (0..MaximumAge). It is shared across every cluster of the
// same type.
type ContactProfile [MaximumAge + 1]float64

// RateAt returns the mean contacts per day for a person of the given age,
// capping the lookup at MaximumAge.
func (p ContactProfile) RateAt(age int) float64 {
	return p[EffectiveAge(age)]
}
