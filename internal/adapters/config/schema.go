package config

// Kilnfile represents the structure of the kiln.yaml configuration file.
type Kilnfile struct {
	Version  string      `yaml:"version"   validate:"required,oneof=1"`
	Entries  []string    `yaml:"entries"   validate:"dive,required"`
	Output   string      `yaml:"output"`
	Target   string      `yaml:"target"`
	OptLevel int         `yaml:"opt_level" validate:"min=0,max=3"`
	Flags    []string    `yaml:"flags"`
	Jobs     int         `yaml:"jobs"      validate:"min=0"`
	Compiler CompilerDTO `yaml:"compiler"`
	Linker   LinkerDTO   `yaml:"linker"`
	Sources  SourcesDTO  `yaml:"sources"`
	Library  LibraryDTO  `yaml:"library"`
	Cache    CacheDTO    `yaml:"cache"`
}

// CompilerDTO configures the frontend process.
type CompilerDTO struct {
	Command []string `yaml:"command" validate:"required,min=1,dive,required"`
	Version string   `yaml:"version" validate:"required,compiler_version"`
}

// LinkerDTO configures the native linker process.
type LinkerDTO struct {
	Command []string `yaml:"command" validate:"required,min=1,dive,required"`
	Args    []string `yaml:"args"`
}

// SourcesDTO configures how module files are named on disk.
type SourcesDTO struct {
	Extension           string `yaml:"extension"            validate:"omitempty,startswith=."`
	Index               string `yaml:"index"                validate:"omitempty,excludesall=/\\"`
	NormalizeWhitespace bool   `yaml:"normalize_whitespace"`
}

// LibraryDTO configures library import resolution.
type LibraryDTO struct {
	Roots []string `yaml:"roots" validate:"dive,required"`
	Env   string   `yaml:"env"`
}

// CacheDTO configures the artifact cache.
type CacheDTO struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb" validate:"min=0"`
}
