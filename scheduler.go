package stride

import "sync"

// RegionTask binds one region's Simulator to the scheduler: its id, the
// simulator itself, and the set of other regions it exchanges visitors and
// expatriates with (derived from the region's travel model).
type RegionTask struct {
	ID               RegionID
	Sim              *Simulator
	ConnectedRegions map[RegionID]bool
}

// connectedRegions returns the set of regions this task depends on and
// sends data to: every region with a route into one of this region's local
// airports, per the travel model built in travel.go.
func connectedRegions(travel *RegionTravel) map[RegionID]bool {
	out := make(map[RegionID]bool, len(travel.IncomingFrom))
	for id := range travel.IncomingFrom {
		out[id] = true
	}
	return out
}

// NewRegionTask builds a RegionTask from a Simulator and its travel model.
func NewRegionTask(id RegionID, sim *Simulator, travel *RegionTravel) *RegionTask {
	return &RegionTask{ID: id, Sim: sim, ConnectedRegions: connectedRegions(travel)}
}

// TaskCommunicationBuffer is one region's mailbox: the phase (the
// simulation day this region will next pull), the not-yet-complete input
// accumulating for future phases, and the set of dependency regions that
// must still push before this region's current phase becomes ready.
type TaskCommunicationBuffer struct {
	phase                  int
	pullBuffers            map[int]SimulationStepInput
	unsatisfiedDependencies map[RegionID]bool
}

// newTaskCommunicationBuffer returns an empty buffer at phase 0.
func newTaskCommunicationBuffer() *TaskCommunicationBuffer {
	return &TaskCommunicationBuffer{pullBuffers: make(map[int]SimulationStepInput)}
}

// IsReady reports whether every dependency for this buffer's current phase
// has been satisfied.
func (b *TaskCommunicationBuffer) IsReady() bool {
	return len(b.unsatisfiedDependencies) == 0
}

// Phase returns the simulation day this buffer will next pull.
func (b *TaskCommunicationBuffer) Phase() int { return b.phase }

// SatisfyDependency marks dependency as having pushed for this buffer's
// current phase.
func (b *TaskCommunicationBuffer) SatisfyDependency(dependency RegionID) {
	delete(b.unsatisfiedDependencies, dependency)
}

// Pull removes and returns this buffer's current phase's accumulated input,
// advancing to the next phase.
func (b *TaskCommunicationBuffer) Pull() SimulationStepInput {
	result := b.pullBuffers[b.phase]
	delete(b.pullBuffers, b.phase)
	b.phase++
	return result
}

// PushVisitor appends an arriving visitor to the buffer for the given phase.
func (b *TaskCommunicationBuffer) PushVisitor(sourcePhase int, sourceRegion RegionID, v OutgoingVisitor) {
	entry := b.pullBuffers[sourcePhase]
	entry.Visitors = append(entry.Visitors, IncomingVisitor{
		HomeID:     v.HomeID,
		Age:        v.Age,
		Health:     v.Health,
		HomeRegion: sourceRegion,
		ReturnDay:  v.ReturnDay,
	})
	b.pullBuffers[sourcePhase] = entry
}

// PushExpatriate appends a returning expatriate's health-update notice to
// the buffer for the given phase.
func (b *TaskCommunicationBuffer) PushExpatriate(sourcePhase int, expatriate OutgoingVisitor) {
	entry := b.pullBuffers[sourcePhase]
	entry.Expatriates = append(entry.Expatriates, expatriate)
	b.pullBuffers[sourcePhase] = entry
}

// ResetDependencies replaces the buffer's unsatisfied-dependency set,
// called once a phase completes and the next phase's dependencies begin
// accumulating.
func (b *TaskCommunicationBuffer) ResetDependencies(dependencies map[RegionID]bool) {
	fresh := make(map[RegionID]bool, len(dependencies))
	for id := range dependencies {
		fresh[id] = true
	}
	b.unsatisfiedDependencies = fresh
}

// TaskCommunicationData holds the communication buffers for every region in
// a multi-region simulation, plus the global set of regions ready to take
// their next step.
type TaskCommunicationData struct {
	mu         sync.Mutex
	readyTasks map[RegionID]bool
	buffers    map[RegionID]*TaskCommunicationBuffer
}

// NewTaskCommunicationData returns an empty TaskCommunicationData.
func NewTaskCommunicationData() *TaskCommunicationData {
	return &TaskCommunicationData{
		readyTasks: make(map[RegionID]bool),
		buffers:    make(map[RegionID]*TaskCommunicationBuffer),
	}
}

func (d *TaskCommunicationData) bufferFor(id RegionID) *TaskCommunicationBuffer {
	b, ok := d.buffers[id]
	if !ok {
		b = newTaskCommunicationBuffer()
		d.buffers[id] = b
	}
	return b
}

// TryPopReady removes and returns one ready region's id, or reports false
// if none are ready.
func (d *TaskCommunicationData) TryPopReady() (RegionID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := range d.readyTasks {
		delete(d.readyTasks, id)
		return id, true
	}
	return 0, false
}

// MarkReady marks the region with the given id ready to step.
func (d *TaskCommunicationData) MarkReady(id RegionID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readyTasks[id] = true
}

// Pull returns the accumulated SimulationStepInput for the given region and
// advances its phase.
func (d *TaskCommunicationData) Pull(id RegionID) SimulationStepInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bufferFor(id).Pull()
}

// Push distributes a region's SimulationStepOutput to the buffers of the
// regions it sent visitors and expatriates to, then removes id from the
// unsatisfied-dependency set of each region in dependencies, marking any
// buffer that becomes satisfied ready, and marks id itself ready if its own
// set is already empty.
func (d *TaskCommunicationData) Push(id RegionID, dependencies map[RegionID]bool, data SimulationStepOutput) {
	d.mu.Lock()
	defer d.mu.Unlock()

	phase := d.bufferFor(id).Phase()
	for _, v := range data.Visitors {
		d.bufferFor(v.VisitedRegion).PushVisitor(phase, id, v)
	}
	for _, e := range data.Expatriates {
		d.bufferFor(e.VisitedRegion).PushExpatriate(phase, e)
	}

	for dep := range dependencies {
		buf := d.bufferFor(dep)
		buf.SatisfyDependency(id)
		if buf.IsReady() {
			d.readyTasks[dep] = true
		}
	}
	if d.bufferFor(id).IsReady() {
		d.readyTasks[id] = true
	}
}

// ResetDependencies replaces the given region's unsatisfied-dependency set.
func (d *TaskCommunicationData) ResetDependencies(id RegionID, dependencies map[RegionID]bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bufferFor(id).ResetDependencies(dependencies)
}

// SequentialSimulationManager runs every region task's TimeStep on a single
// goroutine, one ready region at a time, exactly as the sequential
// reference manager does: pop a ready region, reset its dependencies for
// the next phase, step it if it isn't done, and loop until no region is
// ready.
type SequentialSimulationManager struct {
	commData *TaskCommunicationData
	tasks    map[RegionID]*RegionTask

	// Interrupted is polled at each day boundary; when it returns true the
	// manager stops stepping and WaitAll returns nil, letting the caller
	// treat an external interrupt as a clean exit rather than a failure.
	Interrupted func() bool
}

// NewSequentialSimulationManager returns a manager with no registered
// tasks.
func NewSequentialSimulationManager() *SequentialSimulationManager {
	return &SequentialSimulationManager{
		commData: NewTaskCommunicationData(),
		tasks:    make(map[RegionID]*RegionTask),
	}
}

// AddTask registers a region task and marks it ready for its first step.
func (m *SequentialSimulationManager) AddTask(task *RegionTask) {
	m.tasks[task.ID] = task
	m.commData.MarkReady(task.ID)
}

// step runs one ready region's TimeStep and publishes its output.
func (m *SequentialSimulationManager) step(id RegionID) error {
	task := m.tasks[id]
	input := m.commData.Pull(id)
	output, err := task.Sim.TimeStep(input)
	if err != nil {
		return err
	}
	m.commData.Push(id, task.ConnectedRegions, output)
	return nil
}

// WaitAll drains every ready region repeatedly, advancing the whole
// multi-region simulation until no region has input ready to consume.
func (m *SequentialSimulationManager) WaitAll() error {
	for {
		if m.Interrupted != nil && m.Interrupted() {
			return nil
		}
		id, ok := m.commData.TryPopReady()
		if !ok {
			return nil
		}
		task := m.tasks[id]
		m.commData.ResetDependencies(id, task.ConnectedRegions)
		if task.Sim.IsDone() {
			continue
		}
		if err := m.step(id); err != nil {
			return err
		}
	}
}

// ParallelSimulationManager is the concurrent counterpart to
// SequentialSimulationManager: in each round it drains every region
// currently ready, steps them concurrently on their own goroutines, then
// waits for the whole round before draining again. A region only becomes
// ready once its dependencies for the current phase have pushed; regions
// stepped in the same round may push into each other's buffers, and every
// buffer access goes through TaskCommunicationData's mutex.
type ParallelSimulationManager struct {
	commData *TaskCommunicationData
	tasks    map[RegionID]*RegionTask

	// Interrupted is polled once per round; when it returns true the
	// manager stops stepping and WaitAll returns nil.
	Interrupted func() bool
}

// NewParallelSimulationManager returns a manager with no registered tasks.
func NewParallelSimulationManager() *ParallelSimulationManager {
	return &ParallelSimulationManager{
		commData: NewTaskCommunicationData(),
		tasks:    make(map[RegionID]*RegionTask),
	}
}

// AddTask registers a region task and marks it ready for its first step.
func (m *ParallelSimulationManager) AddTask(task *RegionTask) {
	m.tasks[task.ID] = task
	m.commData.MarkReady(task.ID)
}

// drainReady pops every currently-ready region id in one batch.
func (m *ParallelSimulationManager) drainReady() []RegionID {
	var ids []RegionID
	for {
		id, ok := m.commData.TryPopReady()
		if !ok {
			return ids
		}
		ids = append(ids, id)
	}
}

// WaitAll runs the multi-region simulation to completion, one round of
// concurrent steps at a time, until a round drains no ready regions.
func (m *ParallelSimulationManager) WaitAll() error {
	for {
		if m.Interrupted != nil && m.Interrupted() {
			return nil
		}
		round := m.drainReady()
		if len(round) == 0 {
			return nil
		}

		errs := make([]error, len(round))
		var wg sync.WaitGroup
		for i, id := range round {
			task := m.tasks[id]
			m.commData.ResetDependencies(id, task.ConnectedRegions)
			if task.Sim.IsDone() {
				continue
			}
			wg.Add(1)
			go func(i int, id RegionID) {
				defer wg.Done()
				task := m.tasks[id]
				input := m.commData.Pull(id)
				output, err := task.Sim.TimeStep(input)
				if err != nil {
					errs[i] = err
					return
				}
				m.commData.Push(id, task.ConnectedRegions, output)
			}(i, id)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}
}
