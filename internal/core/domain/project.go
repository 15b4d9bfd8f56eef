package domain

// CompilerFlags are the configuration inputs folded into the compiler flags hash.
type CompilerFlags struct {
	OptLevel int
	Target   string
	Extra    []string
}

// SearchPaths configures how imports are located on disk.
type SearchPaths struct {
	// Extension is the source file extension including the dot.
	Extension string
	// IndexName is the file stem of a directory module's index file.
	IndexName string
	// LibraryRoots are searched in order for library imports.
	LibraryRoots []string
}

// Project is the resolved configuration of one build.
type Project struct {
	Root            string
	ConfigPath      string
	Entries         []string
	Output          string
	Flags           CompilerFlags
	Jobs            int
	CompilerCommand []string
	CompilerVersion string
	LinkerCommand   []string
	LinkerArgs      []string
	Search          SearchPaths
	NormalizeSource bool
	CacheDir        string
	CacheMaxBytes   int64
}
