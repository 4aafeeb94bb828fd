package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"time"

	stride "github.com/kentwait/stride"
)

func main() {
	configPath := flag.String("c", "", "path to the run configuration file")
	trackIndexCase := flag.Bool("r", false, "enable track-index-case mode")
	loggerType := flag.String("logger", "csv", "data logger type (csv|sqlite)")
	numThreads := flag.Int("threads", runtime.NumCPU(), "number of CPU threads")
	seed := flag.Int64("seed", time.Now().UTC().UnixNano(), "random seed; defaults to the current Unix time in nanoseconds")
	flag.Parse()

	if *configPath == "" {
		log.Fatal("missing required -c <config_file>")
	}

	runtime.GOMAXPROCS(*numThreads)

	conf, err := stride.LoadRunConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	conf.Common.RNGSeed = uint64(*seed)
	if *trackIndexCase {
		conf.Common.TrackIndexCase = true
	}
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}

	logMode, err := stride.ParseLogMode(conf.Log.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	builder := stride.NewSimulatorBuilder(conf, nil)
	sims, err := builder.Build()
	if err != nil {
		log.Fatalf("error building simulators from %s: %s", *configPath, err)
	}

	loggers := make(map[stride.RegionID]stride.DataLogger, len(sims))
	for id, sim := range sims {
		logger, err := newDataLogger(*loggerType, conf.Log.OutputPrefix, int(id), conf.Log.GeneratePersonFile, logMode)
		if err != nil {
			log.Fatalf("error creating %s logger for region %d: %s", *loggerType, id, err)
		}
		if err := logger.Init(); err != nil {
			log.Fatalf("error initializing logger for region %d: %s", id, err)
		}
		sim.SetSink(logger)
		loggers[id] = logger
	}

	var interrupted int32
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		atomic.StoreInt32(&interrupted, 1)
	}()

	manager := stride.NewParallelSimulationManager()
	manager.Interrupted = func() bool { return atomic.LoadInt32(&interrupted) != 0 }
	for id, sim := range sims {
		manager.AddTask(stride.NewRegionTask(id, sim, sim.Travel()))
	}

	start := time.Now()
	if err := manager.WaitAll(); err != nil {
		log.Fatalf("simulation failed: %s", err)
	}
	totalTime := time.Since(start)

	for i := range conf.Regions {
		region := &conf.Regions[i]
		id := stride.RegionID(region.RegionID)
		sim := sims[id]
		logger := loggers[id]

		writePersonRecords(sim, logger)

		popSize := sim.Population().Size()
		numCases := sim.Population().GetInfectedCount()
		attackRate := 0.0
		if popSize > 0 {
			attackRate = float64(numCases) / float64(popSize)
		}
		summary := stride.SummaryRecord{
			PopFile:      region.PopulationFile,
			NumDays:      conf.Common.NumberOfDays,
			PopSize:      popSize,
			SeedingRate:  conf.Common.SeedingRate,
			R0:           conf.Common.R0,
			TransmRate:   sim.Disease().TransmissionRate(),
			ImmunityRate: conf.Common.ImmunityRate,
			NumThreads:   sim.NumThreads(),
			RNGSeed:      conf.Common.RNGSeed,
			RunTimeMs:    totalTime.Milliseconds(),
			TotalTimeMs:  totalTime.Milliseconds(),
			NumCases:     numCases,
			AttackRate:   attackRate,
		}
		if err := logger.WriteSummary(summary); err != nil {
			log.Fatalf("error writing summary for region %d: %s", id, err)
		}
		if err := logger.Close(); err != nil {
			log.Fatalf("error closing logger for region %d: %s", id, err)
		}
	}

	log.Printf("completed run in %s", totalTime)
}

// writePersonRecords logs every currently infected or recovered resident's
// disease timeline, per the optional person-file output contract.
func writePersonRecords(sim *stride.Simulator, logger stride.DataLogger) {
	sim.Population().Each(func(p *stride.Person) {
		h := p.Health()
		if !h.IsInfected() && !h.IsRecovered() {
			return
		}
		fate := h.Fate()
		logger.RecordPerson(stride.PersonLogRecord{
			ID:          p.ID(),
			IsRecovered: h.IsRecovered(),
			IsImmune:    h.IsImmune(),
			StartInf:    fate.StartInfectious,
			EndInf:      fate.EndInfectious,
			StartSym:    fate.StartSymptomatic,
			EndSym:      fate.EndSymptomatic,
		})
	})
}

// newDataLogger constructs a region's DataLogger by kind. The csv kind is
// rooted at prefix and indexed by region id; the sqlite kind opens the
// database at prefix and tags its rows with a per-logger run id, ignoring
// regionID.
func newDataLogger(kind, prefix string, regionID int, generatePersonFile bool, logMode stride.LogMode) (stride.DataLogger, error) {
	switch kind {
	case "csv":
		return stride.NewCSVLogger(prefix, regionID, generatePersonFile, logMode), nil
	case "sqlite":
		return stride.NewSQLiteLogger(prefix, logMode)
	default:
		log.Fatalf("%s is not a valid logger type (csv|sqlite)", kind)
		return nil, nil
	}
}
