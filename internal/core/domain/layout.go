package domain

import "path/filepath"

const (
	// KilnDirName is the name of the per-project state directory.
	KilnDirName = ".kiln"

	// CacheDirName is the name of the artifact cache directory.
	CacheDirName = "cache"

	// ScratchDirName is the name of the per-build scratch directory.
	ScratchDirName = "scratch"

	// BlobDirName is the name of the content addressed blob directory inside the cache.
	BlobDirName = "blobs"

	// IndexFileName is the name of the cache metadata index.
	IndexFileName = "index.json"

	// LockFileName is the name of the cache directory lock file.
	LockFileName = "LOCK"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "kiln.yaml"

	// LibraryDirName is the directory name searched in every ancestor of an importer.
	LibraryDirName = "library"

	// DefaultExtension is the default source file extension.
	DefaultExtension = ".kn"

	// DefaultIndexName is the default stem of a directory module's index file.
	DefaultIndexName = "mod"

	// DefaultLibraryEnv is the default environment variable overriding the library root.
	DefaultLibraryEnv = "KILN_LIBRARY"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// SystemLibraryDirs are searched last for library imports.
var SystemLibraryDirs = []string{
	"/usr/local/lib/kiln/library",
	"/usr/lib/kiln/library",
}

// DefaultCachePath returns the cache directory for a project root.
func DefaultCachePath(root string) string {
	return filepath.Join(root, KilnDirName, CacheDirName)
}

// DefaultScratchPath returns the scratch directory for a project root.
func DefaultScratchPath(root string) string {
	return filepath.Join(root, KilnDirName, ScratchDirName)
}
