//go:build unix

package cas

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// dirLock is an advisory flock(2) lock on the cache LOCK file.
// It serializes index writers across processes sharing one cache directory.
type dirLock struct {
	file *os.File
}

func openDirLock(path string) (*dirLock, error) {
	//nolint:gosec // Path is the cache directory's lock file
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, err
	}
	return &dirLock{file: f}, nil
}

func (l *dirLock) lock() error {
	for {
		err := unix.Flock(int(l.file.Fd()), unix.LOCK_EX)
		if !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

func (l *dirLock) unlock() error {
	return unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
}

func (l *dirLock) close() error {
	return l.file.Close()
}
