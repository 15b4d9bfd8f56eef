package ports

import (
	"context"
	"iter"
)

// WatchOp classifies a change reported by a Watcher.
type WatchOp uint8

// Change kinds delivered to watch mode. Chmod-only changes are never reported.
const (
	OpCreate WatchOp = iota
	OpWrite
	OpRemove
	OpRename
)

func (op WatchOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// WatchEvent is a single change below the watched project root.
type WatchEvent struct {
	Path      string // absolute
	Operation WatchOp
}

// Watcher reports source changes below a project root so that watch mode
// can invalidate the source memo and rebuild.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches root and every directory below it, skipping the .kiln
	// state directory and version control metadata.
	Start(ctx context.Context, root string) error
	Stop() error
	// Events yields changes until Stop is called.
	Events() iter.Seq[WatchEvent]
}
