package domain

import "time"

// JobState is the scheduling state of a module within one build.
type JobState uint8

const (
	// JobPending waits for dependencies.
	JobPending JobState = iota
	// JobReady has all dependencies done and waits for a worker.
	JobReady
	// JobRunning is being checked against the cache or compiled.
	JobRunning
	// JobDone finished from cache or fresh compilation.
	JobDone
	// JobFailed failed to compile.
	JobFailed
	// JobSkipped was never attempted because a dependency failed.
	JobSkipped
)

// String returns the lower case state name.
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobReady:
		return "ready"
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	case JobSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final for this build.
func (s JobState) Terminal() bool {
	return s == JobDone || s == JobFailed || s == JobSkipped
}

// BuildJob is the scheduler's unit of work for one module.
type BuildJob struct {
	Node   int
	State  JobState
	Cached bool
	Err    error
	// Cause is the failed module that made this job skipped.
	Cause ModuleID
}

// Artifact is an object file produced for a module.
type Artifact struct {
	Module        ModuleID
	Path          string
	Signature     Signature
	SignatureHash Hash
	Cached        bool
}

// ModuleFailure records a module that failed to compile.
type ModuleFailure struct {
	Module ModuleID
	Err    error
}

// ModuleSkip records a module that was not attempted.
type ModuleSkip struct {
	Module ModuleID
	Cause  ModuleID
}

// BuildReport is the outcome of one scheduler run.
type BuildReport struct {
	Compiled   []ModuleID
	Cached     []ModuleID
	Failed     []ModuleFailure
	Skipped    []ModuleSkip
	NotStarted []ModuleID
	Artifacts  map[ModuleID]Artifact
	Cancelled  bool
	Duration   time.Duration
	BinaryPath string
}

// NewBuildReport creates an empty report.
func NewBuildReport() *BuildReport {
	return &BuildReport{Artifacts: make(map[ModuleID]Artifact)}
}

// Total returns the number of modules accounted for in the report.
func (r *BuildReport) Total() int {
	return len(r.Compiled) + len(r.Cached) + len(r.Failed) + len(r.Skipped) + len(r.NotStarted)
}

// Succeeded reports whether every module is available for linking.
func (r *BuildReport) Succeeded() bool {
	return !r.Cancelled && len(r.Failed) == 0 && len(r.Skipped) == 0 && len(r.NotStarted) == 0
}
