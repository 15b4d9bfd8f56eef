//go:build !unix

package cas

import "os"

// dirLock only keeps the LOCK file open on platforms without flock(2).
// Writers are still serialized within the process by the store mutex.
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

func (l *dirLock) lock() error { return nil }

func (l *dirLock) unlock() error { return nil }

func (l *dirLock) close() error {
	return l.file.Close()
}
