package stride

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/segmentio/ksuid"
	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// SummaryRecord is the single data row written to <prefix>_summary.csv once a
// run completes.
type SummaryRecord struct {
	PopFile      string
	NumDays      int
	PopSize      int
	SeedingRate  float64
	R0           float64
	TransmRate   float64
	ImmunityRate float64
	NumThreads   int
	RNGSeed      uint64
	RunTimeMs    int64
	TotalTimeMs  int64
	NumCases     int
	AttackRate   float64
}

// PersonLogRecord is one row of <prefix>_person.csv: one infected person's final
// disease timeline.
type PersonLogRecord struct {
	ID           PersonID
	IsRecovered  bool
	IsImmune     bool
	StartInf     int
	EndInf       int
	StartSym     int
	EndSym       int
}

// DataLogger is the general definition of a logger that records one region's
// run output, whether it writes text files or a database. Every logger also
// implements EventSink so the Infector kernel can write straight to it.
type DataLogger interface {
	EventSink

	// SetBasePath sets the base path and region/instance index used to name
	// this logger's output files or tables.
	SetBasePath(path string, i int)
	// Init prepares the logger to receive output: creating files with
	// headers, or creating database tables.
	Init() error
	// RecordCases appends today's cumulative infected count to the running
	// cases series.
	RecordCases(cumulative int)
	// RecordPerson appends one infected person's final disease timeline to
	// the person log.
	RecordPerson(rec PersonLogRecord)
	// WriteSummary writes the run's single summary row.
	WriteSummary(rec SummaryRecord) error
	// Close flushes and finalizes every output this logger owns.
	Close() error
}

// NewFile creates a new file at path, failing if it already exists.
func NewFile(path string, b []byte) error {
	if exists, _ := fileExists(path); exists {
		return fmt.Errorf("%s already exists", path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}

// AppendToFile creates a new file at path if it does not exist, or appends
// to the end of the existing file.
func AppendToFile(path string, b []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return err
	}
	return f.Sync()
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CSVLogger is a DataLogger that writes a run's output as plain files:
// <prefix>_cases.csv, <prefix>_summary.csv, <prefix>_person.csv (only when
// GeneratePersonFile is set) and <prefix>_logfile.
type CSVLogger struct {
	casesPath   string
	summaryPath string
	personPath  string
	logPath     string

	generatePersonFile bool
	logMode            LogMode

	cases  []int
	people []PersonLogRecord
	logBuf bytes.Buffer
}

// NewCSVLogger creates a CSVLogger rooted at basepath for region/instance i.
func NewCSVLogger(basepath string, i int, generatePersonFile bool, logMode LogMode) *CSVLogger {
	l := &CSVLogger{generatePersonFile: generatePersonFile, logMode: logMode}
	l.SetBasePath(basepath, i)
	return l
}

// SetBasePath derives this logger's four output paths from basepath and the
// region/instance index i.
func (l *CSVLogger) SetBasePath(basepath string, i int) {
	prefix := strings.TrimSuffix(basepath, ".") + fmt.Sprintf(".%03d", i)
	l.casesPath = prefix + "_cases.csv"
	l.summaryPath = prefix + "_summary.csv"
	l.personPath = prefix + "_person.csv"
	l.logPath = prefix + "_logfile"
}

// Init writes the person-file header, if enabled. The cases series, person
// rows and logfile lines are accumulated in memory and written at Close;
// the summary file is written by WriteSummary.
func (l *CSVLogger) Init() error {
	if l.generatePersonFile {
		if err := NewFile(l.personPath, []byte("id;is_recovered;is_immune;start_inf;end_inf;start_sym;end_sym\n")); err != nil {
			return err
		}
	}
	return nil
}

// RecordCases appends today's cumulative infected count.
func (l *CSVLogger) RecordCases(cumulative int) {
	l.cases = append(l.cases, cumulative)
}

// RecordPerson appends one infected person's disease timeline.
func (l *CSVLogger) RecordPerson(rec PersonLogRecord) {
	if !l.generatePersonFile {
		return
	}
	l.people = append(l.people, rec)
}

// LogTransmission buffers one [TRAN] line for the logfile.
func (l *CSVLogger) LogTransmission(infecterID, infectedID PersonID, clusterType ClusterType, day int) {
	if l.logMode != LogTransmissions {
		return
	}
	l.logBuf.WriteString(FormatTransmissionLine(infecterID, infectedID, clusterType, day))
	l.logBuf.WriteByte('\n')
}

// LogContact buffers one [CONT] line for the logfile.
func (l *CSVLogger) LogContact(p1, p2 *Person, clusterType ClusterType, day int) {
	if l.logMode != LogContacts {
		return
	}
	l.logBuf.WriteString(FormatContactLine(p1, p2, clusterType, day))
	l.logBuf.WriteByte('\n')
}

// WriteSummary writes the single summary row.
func (l *CSVLogger) WriteSummary(rec SummaryRecord) error {
	header := "pop_file,num_days,pop_size,seeding_rate,r0,transm_rate,immunity_rate,num_threads,rng_seed,run_time_ms,total_time_ms,num_cases,attack_rate\n"
	row := fmt.Sprintf("%s,%d,%d,%f,%f,%f,%f,%d,%d,%d,%d,%d,%f\n",
		rec.PopFile, rec.NumDays, rec.PopSize, rec.SeedingRate, rec.R0, rec.TransmRate,
		rec.ImmunityRate, rec.NumThreads, rec.RNGSeed, rec.RunTimeMs, rec.TotalTimeMs,
		rec.NumCases, rec.AttackRate)
	return NewFile(l.summaryPath, []byte(header+row))
}

// Close writes the accumulated cases series, person file and logfile.
func (l *CSVLogger) Close() error {
	strs := make([]string, len(l.cases))
	for i, c := range l.cases {
		strs[i] = strconv.Itoa(c)
	}
	if err := NewFile(l.casesPath, []byte(strings.Join(strs, ",")+"\n")); err != nil {
		return err
	}

	if l.generatePersonFile {
		var b bytes.Buffer
		for _, p := range l.people {
			fmt.Fprintf(&b, "%d;%t;%t;%d;%d;%d;%d\n",
				p.ID, p.IsRecovered, p.IsImmune, p.StartInf, p.EndInf, p.StartSym, p.EndSym)
		}
		if err := AppendToFile(l.personPath, b.Bytes()); err != nil {
			return err
		}
	}

	if l.logBuf.Len() > 0 {
		if err := AppendToFile(l.logPath, l.logBuf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// SQLiteLogger is a DataLogger that writes a run's output to a single SQLite
// database in WAL mode, tagging every row with a ksuid run id so that
// multiple runs can share one database file without colliding.
type SQLiteLogger struct {
	db      *sql.DB
	runID   ksuid.KSUID
	logMode LogMode
	day     int
}

// NewSQLiteLogger opens (creating if absent) a WAL-mode SQLite database at
// path and returns a logger tagged with a fresh run id.
func NewSQLiteLogger(path string, logMode LogMode) (*SQLiteLogger, error) {
	db, err := openSQLiteDBOptimized(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteLogger{
		db:      db,
		runID:   ksuid.New(),
		logMode: logMode,
	}, nil
}

// SetBasePath is a no-op for SQLiteLogger: every run shares one database
// file and is distinguished by run id, not by file path.
func (l *SQLiteLogger) SetBasePath(string, int) {}

// Init creates the four tables if they do not already exist.
func (l *SQLiteLogger) Init() error {
	stmts := []string{
		`create table if not exists cases (run_id text, day int, cumulative int)`,
		`create table if not exists summary (run_id text, pop_file text, num_days int, pop_size int,
			seeding_rate real, r0 real, transm_rate real, immunity_rate real, num_threads int,
			rng_seed int, run_time_ms int, total_time_ms int, num_cases int, attack_rate real)`,
		`create table if not exists person (run_id text, id int, is_recovered int, is_immune int,
			start_inf int, end_inf int, start_sym int, end_sym int)`,
		`create table if not exists logfile (run_id text, kind text, line text)`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("%q: %s", err, stmt)
		}
	}
	return nil
}

// RecordCases inserts today's cumulative infected count, keyed by its own
// running day counter.
func (l *SQLiteLogger) RecordCases(cumulative int) {
	_, _ = l.db.Exec(`insert into cases(run_id, day, cumulative) values(?, ?, ?)`,
		l.runID.String(), l.day, cumulative)
	l.day++
}

// RecordPerson inserts one infected person's disease timeline.
func (l *SQLiteLogger) RecordPerson(rec PersonLogRecord) {
	_, _ = l.db.Exec(`insert into person(run_id, id, is_recovered, is_immune, start_inf, end_inf, start_sym, end_sym)
		values(?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID.String(), rec.ID, rec.IsRecovered, rec.IsImmune, rec.StartInf, rec.EndInf, rec.StartSym, rec.EndSym)
}

// LogTransmission inserts one [TRAN] row.
func (l *SQLiteLogger) LogTransmission(infecterID, infectedID PersonID, clusterType ClusterType, day int) {
	if l.logMode != LogTransmissions {
		return
	}
	_, _ = l.db.Exec(`insert into logfile(run_id, kind, line) values(?, 'TRAN', ?)`,
		l.runID.String(), FormatTransmissionLine(infecterID, infectedID, clusterType, day))
}

// LogContact inserts one [CONT] row.
func (l *SQLiteLogger) LogContact(p1, p2 *Person, clusterType ClusterType, day int) {
	if l.logMode != LogContacts {
		return
	}
	_, _ = l.db.Exec(`insert into logfile(run_id, kind, line) values(?, 'CONT', ?)`,
		l.runID.String(), FormatContactLine(p1, p2, clusterType, day))
}

// WriteSummary inserts the run's single summary row.
func (l *SQLiteLogger) WriteSummary(rec SummaryRecord) error {
	_, err := l.db.Exec(`insert into summary(run_id, pop_file, num_days, pop_size, seeding_rate, r0,
		transm_rate, immunity_rate, num_threads, rng_seed, run_time_ms, total_time_ms, num_cases, attack_rate)
		values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.runID.String(), rec.PopFile, rec.NumDays, rec.PopSize, rec.SeedingRate, rec.R0, rec.TransmRate,
		rec.ImmunityRate, rec.NumThreads, rec.RNGSeed, rec.RunTimeMs, rec.TotalTimeMs, rec.NumCases, rec.AttackRate)
	return err
}

// Close closes the underlying database connection.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}

// openSQLiteDBOptimized opens path in WAL journal mode with exclusive
// locking, matching the access pattern of a single writer per run.
func openSQLiteDBOptimized(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_locking=EXCLUSIVE&_sync=NORMAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}
