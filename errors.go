package stride

import "fmt"

// Sentinel format-string errors, used with fmt.Errorf at the call site.
const (
	IntKeyNotFoundError = "key %d not found"
	IntKeyExistsError   = "key %d already exists"

	InvalidFloatParameterError  = "invalid %s %f, %s"
	InvalidIntParameterError    = "invalid %s %d, %s"
	InvalidStringParameterError = "invalid %s %s, %s"

	UnequalFloatParameterError  = "expected %s %f, instead got %f"
	UnequalIntParameterError    = "expected %s %d, instead got %d"
	UnequalStringParameterError = "expected %s %s, instead got %s"
	UnexpectedErrorWhileError   = "encountered error while %s: %s"
	ExpectedErrorWhileError     = "expected an error while %s, instead got none"

	EmptyWeightsError         = "alias sampler: weight vector is empty or sums to zero"
	NotEnoughCandidatesError  = "population: could not find %d candidates satisfying predicate, short by %d"
	UnknownLogModeError       = "unrecognized log mode %q"
	UnknownDaysOffPolicyError = "unrecognized days-off policy %q"
	ConfigConstraintError     = "config: %s must satisfy %s, got %v"
)

// ConfigError wraps a configuration-parsing or validation failure, carrying
// the offending file path and key so the CLI can report it directly.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error on %s: %s", e.Key, e.Err)
	}
	return fmt.Sprintf("config error in %s (%s): %s", e.Path, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError from a path, a key, and an underlying cause.
func NewConfigError(path, key string, err error) *ConfigError {
	return &ConfigError{Path: path, Key: key, Err: err}
}

// InvariantViolation marks a programmer error in engine state transitions:
// StartInfection on a non-susceptible person, StopInfection on a non-infected
// one, an out-of-range cluster access, and similar conditions that must never
// be caught for recovery.
type InvariantViolation struct {
	Func      string
	Condition string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Func, e.Condition)
}

// NewInvariantViolation builds an InvariantViolation for the given function and condition.
func NewInvariantViolation(fn, condition string) *InvariantViolation {
	return &InvariantViolation{Func: fn, Condition: condition}
}

// ResourceExhaustionError marks a failure to satisfy a sampling request, e.g.
// Population.GetRandomPersonsMatching running out of predicate-satisfying candidates.
type ResourceExhaustionError struct {
	Requested int
	Deficit   int
	Detail    string
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("resource exhausted: requested %d, short by %d (%s)", e.Requested, e.Deficit, e.Detail)
}

// NewResourceExhaustionError builds a ResourceExhaustionError.
func NewResourceExhaustionError(requested, deficit int, detail string) *ResourceExhaustionError {
	return &ResourceExhaustionError{Requested: requested, Deficit: deficit, Detail: detail}
}
