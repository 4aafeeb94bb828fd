package stride

import "testing"

func TestRegionTaskConnectedRegions(t *testing.T) {
	hub := &Airport{RegionID: 1}
	remote := &Airport{RegionID: 2, Routes: []AirRoute{{PassengerFraction: 1, Target: hub}}}
	travel := NewRegionTravel(1, 0.1, 1, 2, []*Airport{hub, remote})

	task := NewRegionTask(1, nil, travel)
	if task.ID != 1 {
		t.Errorf("task.ID = %d, want 1", task.ID)
	}
	if !task.ConnectedRegions[2] {
		t.Errorf("expected region 2 (which routes into region 1's hub) to be a connected region")
	}
}

func TestTaskCommunicationBufferPushAndPull(t *testing.T) {
	b := newTaskCommunicationBuffer()
	if !b.IsReady() {
		t.Fatalf("expected a fresh buffer with no dependencies to be ready")
	}
	if got, want := b.Phase(), 0; got != want {
		t.Errorf(UnequalIntParameterError, "Phase()", want, got)
	}

	b.PushVisitor(0, 5, OutgoingVisitor{HomeID: 1, Age: 20, VisitedRegion: 1, ReturnDay: 3})
	b.PushExpatriate(0, OutgoingVisitor{HomeID: 2, Age: 30, VisitedRegion: 1, ReturnDay: 1})

	out := b.Pull()
	if got, want := len(out.Visitors), 1; got != want {
		t.Fatalf(UnequalIntParameterError, "len(Visitors)", want, got)
	}
	if got, want := out.Visitors[0].HomeRegion, RegionID(5); got != want {
		t.Errorf(UnequalIntParameterError, "Visitors[0].HomeRegion", int(want), int(got))
	}
	if got, want := len(out.Expatriates), 1; got != want {
		t.Fatalf(UnequalIntParameterError, "len(Expatriates)", want, got)
	}
	if got, want := b.Phase(), 1; got != want {
		t.Errorf(UnequalIntParameterError, "Phase() after Pull", want, got)
	}
}

func TestTaskCommunicationBufferDependencies(t *testing.T) {
	b := newTaskCommunicationBuffer()
	b.ResetDependencies(map[RegionID]bool{2: true, 3: true})
	if b.IsReady() {
		t.Fatalf("expected a buffer with unsatisfied dependencies not to be ready")
	}
	b.SatisfyDependency(2)
	if b.IsReady() {
		t.Fatalf("expected a buffer with one remaining unsatisfied dependency not to be ready")
	}
	b.SatisfyDependency(3)
	if !b.IsReady() {
		t.Fatalf("expected a buffer to become ready once every dependency is satisfied")
	}
}

func TestTaskCommunicationDataPushMarksDependentsReady(t *testing.T) {
	d := NewTaskCommunicationData()
	d.ResetDependencies(1, map[RegionID]bool{2: true})

	if _, ok := d.TryPopReady(); ok {
		t.Fatalf("expected region 1 not to be ready before region 2 pushes")
	}

	d.ResetDependencies(2, map[RegionID]bool{1: true})
	d.Push(2, map[RegionID]bool{1: true}, SimulationStepOutput{
		Visitors:    []OutgoingVisitor{{HomeID: 9, Age: 40, VisitedRegion: 1, ReturnDay: 2}},
		Expatriates: []OutgoingVisitor{{HomeID: 10, Age: 41, VisitedRegion: 1, ReturnDay: 1}},
	})

	id, ok := d.TryPopReady()
	if !ok {
		t.Fatalf("expected region 1 to become ready after region 2 pushes and satisfies its dependency")
	}
	if got, want := id, RegionID(1); got != want {
		t.Errorf(UnequalIntParameterError, "ready region id", int(want), int(got))
	}

	input := d.Pull(1)
	if got, want := len(input.Visitors), 1; got != want {
		t.Errorf(UnequalIntParameterError, "len(Visitors) delivered to region 1", want, got)
	}
	if got, want := len(input.Expatriates), 1; got != want {
		t.Errorf(UnequalIntParameterError, "len(Expatriates) delivered to region 1", want, got)
	}
}

func TestTaskCommunicationDataMarkReadyAndTryPopReady(t *testing.T) {
	d := NewTaskCommunicationData()
	if _, ok := d.TryPopReady(); ok {
		t.Fatalf("expected an empty TaskCommunicationData to have no ready regions")
	}
	d.MarkReady(7)
	id, ok := d.TryPopReady()
	if !ok || id != 7 {
		t.Fatalf("expected region 7 to be popped ready, got id=%d ok=%v", id, ok)
	}
	if _, ok := d.TryPopReady(); ok {
		t.Fatalf("expected TryPopReady to drain the ready set exactly once")
	}
}

func TestSequentialSimulationManagerRunsIsolatedRegionToCompletion(t *testing.T) {
	sim := newTestSimulator(3)
	manager := NewSequentialSimulationManager()
	manager.AddTask(NewRegionTask(1, sim, &RegionTravel{RegionID: 1}))

	if err := manager.WaitAll(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running a single isolated region to completion", err)
	}
	if !sim.IsDone() {
		t.Fatalf("expected the region's simulator to have reached numDays after WaitAll")
	}
}

func TestSequentialSimulationManagerHonorsInterrupted(t *testing.T) {
	sim := newTestSimulator(10)
	manager := NewSequentialSimulationManager()
	manager.AddTask(NewRegionTask(1, sim, &RegionTravel{RegionID: 1}))
	manager.Interrupted = func() bool { return true }

	if err := manager.WaitAll(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running WaitAll with Interrupted already true", err)
	}
	if sim.Calendar().Day() != 0 {
		t.Errorf("expected an immediately-interrupted manager to step zero days, got day %d", sim.Calendar().Day())
	}
}

func TestParallelSimulationManagerRunsIsolatedRegionToCompletion(t *testing.T) {
	sim := newTestSimulator(3)
	manager := NewParallelSimulationManager()
	manager.AddTask(NewRegionTask(1, sim, &RegionTravel{RegionID: 1}))

	if err := manager.WaitAll(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running a single isolated region to completion", err)
	}
	if !sim.IsDone() {
		t.Fatalf("expected the region's simulator to have reached numDays after WaitAll")
	}
}

func TestParallelSimulationManagerTwoIndependentRegions(t *testing.T) {
	simA := newTestSimulator(2)
	simA.RegionID = 1
	simB := newTestSimulator(2)
	simB.RegionID = 2

	manager := NewParallelSimulationManager()
	manager.AddTask(NewRegionTask(1, simA, &RegionTravel{RegionID: 1}))
	manager.AddTask(NewRegionTask(2, simB, &RegionTravel{RegionID: 2}))

	if err := manager.WaitAll(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running two independent regions to completion", err)
	}
	if !simA.IsDone() || !simB.IsDone() {
		t.Fatalf("expected both independent regions to reach numDays")
	}
}

func TestParallelSimulationManagerHonorsInterrupted(t *testing.T) {
	sim := newTestSimulator(10)
	manager := NewParallelSimulationManager()
	manager.AddTask(NewRegionTask(1, sim, &RegionTravel{RegionID: 1}))
	manager.Interrupted = func() bool { return true }

	if err := manager.WaitAll(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running WaitAll with Interrupted already true", err)
	}
	if sim.Calendar().Day() != 0 {
		t.Errorf("expected an immediately-interrupted manager to step zero days, got day %d", sim.Calendar().Day())
	}
}
