package domain

import (
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrModuleNotFound is returned when an import cannot be located on disk.
	ErrModuleNotFound = zerr.New("module not found")

	// ErrImportCycle is returned when the import graph contains a cycle.
	ErrImportCycle = zerr.New("import cycle detected")

	// ErrNoEntries is returned when a build has no entry modules.
	ErrNoEntries = zerr.New("no entry modules specified")

	// ErrSourceReadFailed is returned when a module's source cannot be read.
	ErrSourceReadFailed = zerr.New("failed to read module source")

	// ErrImportResolutionFailed is returned when the frontend cannot list a module's imports.
	ErrImportResolutionFailed = zerr.New("failed to resolve imports")

	// ErrCompileFailed is returned when the frontend fails to compile a module.
	ErrCompileFailed = zerr.New("compilation failed")

	// ErrLinkFailed is returned when the linker exits with a non-zero status.
	ErrLinkFailed = zerr.New("link failed")

	// ErrMissingObject is returned when a module has no object file at link time.
	ErrMissingObject = zerr.New("missing object for module")

	// ErrBuildFailed is returned when one or more modules failed or were skipped.
	ErrBuildFailed = zerr.New("build failed")

	// ErrBuildCancelled is returned when a build was interrupted before completion.
	ErrBuildCancelled = zerr.New("build cancelled")

	// ErrScratchWriteFailed is returned when an object cannot be written to the scratch directory.
	ErrScratchWriteFailed = zerr.New("failed to write scratch artifact")

	// ErrCacheOpenFailed is returned when the cache directory cannot be prepared.
	ErrCacheOpenFailed = zerr.New("failed to open cache")

	// ErrCacheLockFailed is returned when the cache directory lock cannot be taken.
	ErrCacheLockFailed = zerr.New("failed to lock cache directory")

	// ErrCacheIndexReadFailed is returned when the cache index cannot be read.
	ErrCacheIndexReadFailed = zerr.New("failed to read cache index")

	// ErrCacheIndexWriteFailed is returned when the cache index cannot be written.
	ErrCacheIndexWriteFailed = zerr.New("failed to write cache index")

	// ErrCacheBlobWriteFailed is returned when an artifact blob cannot be stored.
	ErrCacheBlobWriteFailed = zerr.New("failed to write cache blob")

	// ErrCacheInvalidateFailed is returned when the cache cannot be cleared.
	ErrCacheInvalidateFailed = zerr.New("failed to invalidate cache")

	// ErrCacheCorrupt marks an unreadable cache entry. It is recovered as a miss.
	ErrCacheCorrupt = zerr.New("cache entry corrupt")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrConfigNotFound is returned when no kiln.yaml exists in the directory tree.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrFrontendFailed is returned when the frontend process cannot be run.
	ErrFrontendFailed = zerr.New("frontend invocation failed")

	// ErrFrontendProtocol is returned when the frontend output cannot be decoded.
	ErrFrontendProtocol = zerr.New("invalid frontend response")

	// ErrLinkerFailed is returned when the linker process cannot be started.
	ErrLinkerFailed = zerr.New("linker invocation failed")

	// ErrWatchFailed is returned when the file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to watch project")
)

// ImportNotFoundError reports an import that matched none of the probed paths.
type ImportNotFoundError struct {
	Importer ModuleID
	Ref      ImportRef
	Probed   []string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("cannot find import %s in %s. Searched: %s",
		e.Ref, e.Importer, strings.Join(e.Probed, ", "))
}

// Unwrap returns ErrModuleNotFound.
func (e *ImportNotFoundError) Unwrap() error {
	return ErrModuleNotFound
}

// CycleGuidance is printed after every reported import cycle.
const CycleGuidance = "extract the shared declarations into a separate module, " +
	"or invert one of the dependencies so that only one side imports the other"

// CycleError reports every simple import cycle found in the graph.
// Each cycle lists its modules in import order and repeats the first
// module at the end.
type CycleError struct {
	Root   string
	Cycles [][]ModuleID
}

// Paths renders each cycle as "a -> b -> a".
func (e *CycleError) Paths() []string {
	paths := make([]string, len(e.Cycles))
	for i, cycle := range e.Cycles {
		parts := make([]string, len(cycle))
		for j, id := range cycle {
			parts[j] = id.Rel(e.Root)
		}
		paths[i] = strings.Join(parts, " -> ")
	}
	return paths
}

func (e *CycleError) Error() string {
	var b strings.Builder
	b.WriteString(ErrImportCycle.Error())
	for _, p := range e.Paths() {
		b.WriteString("\n  ")
		b.WriteString(p)
	}
	b.WriteString("\nhint: ")
	b.WriteString(CycleGuidance)
	return b.String()
}

// Unwrap returns ErrImportCycle.
func (e *CycleError) Unwrap() error {
	return ErrImportCycle
}

// CompileError is a frontend failure for a single module.
type CompileError struct {
	Module ModuleID
	Stderr string
	Err    error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrCompileFailed.Error(), e.Module)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying frontend error.
func (e *CompileError) Unwrap() error {
	return e.Err
}

// LinkError is a non-zero linker exit with its raw diagnostics.
type LinkError struct {
	Output   string
	ExitCode int
	Stderr   string
}

func (e *LinkError) Error() string {
	msg := fmt.Sprintf("%s: %s (exit code %d)", ErrLinkFailed.Error(), e.Output, e.ExitCode)
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

// Unwrap returns ErrLinkFailed.
func (e *LinkError) Unwrap() error {
	return ErrLinkFailed
}
