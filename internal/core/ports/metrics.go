package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Metrics records build statistics.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveCacheLookup counts a cache hit or miss.
	ObserveCacheLookup(hit bool)
	// ObserveModule records the terminal state of a module and the time spent on it.
	ObserveModule(state domain.JobState, elapsed time.Duration)
	// ObserveLink records a linker run.
	ObserveLink(elapsed time.Duration, err error)
}
