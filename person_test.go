package stride

import "testing"

func TestNoBeliefIsInert(t *testing.T) {
	var policy BeliefPolicy = NoBelief{}
	h := NewHealth(Fate{})
	policy.Update(h)
	if policy.HasAdopted() {
		t.Errorf("expected NoBelief.HasAdopted to always report false")
	}
}

func TestPersonUpdateInvokesBeliefPolicy(t *testing.T) {
	p := newTestPerson(1, 30)
	p.Update(false, false)
	if p.belief == nil {
		t.Fatalf("expected NewPerson to wire a default BeliefPolicy")
	}
	if _, ok := p.belief.(NoBelief); !ok {
		t.Errorf("expected the default BeliefPolicy to be NoBelief, got %T", p.belief)
	}
}

func TestPersonUpdatePresenceFollowsDaysOff(t *testing.T) {
	adult := newTestPerson(1, 30)
	adult.Update(true, true)
	if adult.IsPresent(Work) || adult.IsPresent(School) || adult.IsPresent(SecondaryCommunity) {
		t.Errorf("expected an adult to withdraw from work/school/secondary community when work is off")
	}
	if !adult.IsPresent(PrimaryCommunity) || !adult.IsPresent(Household) {
		t.Errorf("expected an adult withdrawn from work to remain present at home and in the primary community")
	}

	adult.Update(false, false)
	if !adult.IsPresent(Work) || !adult.IsPresent(School) || !adult.IsPresent(SecondaryCommunity) {
		t.Errorf("expected an adult to resume normal presence once work and school are back on")
	}
	if adult.IsPresent(PrimaryCommunity) {
		t.Errorf("expected normal presence to withdraw from the primary community")
	}

	minor := newTestPerson(2, 10)
	minor.Update(false, true)
	if minor.IsPresent(Work) || minor.IsPresent(School) {
		t.Errorf("expected a minor to withdraw from school and work when school is off, even with work on")
	}
}
