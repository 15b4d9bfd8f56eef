// Package config provides the kiln.yaml loader.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const megabyte = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("compiler_version", func(fl validator.FieldLevel) bool {
		return semver.IsValid("v" + strings.TrimPrefix(fl.Field().String(), "v"))
	})
	return v
}

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	getenv func(string) string
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, getenv: os.Getenv}
}

// Load reads kiln.yaml from cwd or its closest ancestor and resolves it into a project.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	var kf Kilnfile
	if err := readAndUnmarshalYAML(configPath, &kf); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if err := validate.Struct(&kf); err != nil {
		return nil, zerr.With(zerr.Wrap(describeValidation(err), domain.ErrConfigInvalid.Error()), "path", configPath)
	}

	return l.resolve(configPath, &kf), nil
}

// DiscoverRoot walks up from cwd to find the directory containing kiln.yaml.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, err := findConfiguration(cwd)
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func findConfiguration(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

func (l *Loader) resolve(configPath string, kf *Kilnfile) *domain.Project {
	root := filepath.Dir(configPath)

	p := &domain.Project{
		Root:       root,
		ConfigPath: configPath,
		Entries:    resolvePaths(root, kf.Entries),
		Output:     resolvePath(root, kf.Output),
		Flags: domain.CompilerFlags{
			OptLevel: kf.OptLevel,
			Target:   kf.Target,
			Extra:    kf.Flags,
		},
		Jobs:            kf.Jobs,
		CompilerCommand: kf.Compiler.Command,
		CompilerVersion: kf.Compiler.Version,
		LinkerCommand:   kf.Linker.Command,
		LinkerArgs:      kf.Linker.Args,
		Search: domain.SearchPaths{
			Extension: kf.Sources.Extension,
			IndexName: kf.Sources.Index,
		},
		NormalizeSource: kf.Sources.NormalizeWhitespace,
		CacheDir:        resolvePath(root, kf.Cache.Dir),
		CacheMaxBytes:   kf.Cache.MaxSizeMB * megabyte,
	}

	if kf.Output == "" {
		p.Output = filepath.Join(root, "build", filepath.Base(root))
	}
	if p.Search.Extension == "" {
		p.Search.Extension = domain.DefaultExtension
	}
	if p.Search.IndexName == "" {
		p.Search.IndexName = domain.DefaultIndexName
	}
	if kf.Cache.Dir == "" {
		p.CacheDir = domain.DefaultCachePath(root)
	}

	p.Search.LibraryRoots = l.libraryRoots(root, kf.Library)
	return p
}

// libraryRoots returns the environment override first, then the configured roots.
func (l *Loader) libraryRoots(root string, lib LibraryDTO) []string {
	env := lib.Env
	if env == "" {
		env = domain.DefaultLibraryEnv
	}

	var roots []string
	if override := l.getenv(env); override != "" {
		for _, dir := range filepath.SplitList(override) {
			if dir != "" {
				roots = append(roots, resolvePath(root, dir))
			}
		}
	}

	for _, dir := range resolvePaths(root, lib.Roots) {
		if _, err := os.Stat(dir); err != nil {
			l.Logger.Warn(fmt.Sprintf("library root %s does not exist", dir))
		}
		roots = append(roots, dir)
	}
	return roots
}

func resolvePath(root, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func resolvePaths(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = resolvePath(root, p)
	}
	return out
}

// readAndUnmarshalYAML reads a YAML file and decodes it into target, rejecting unknown keys.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is found by walking up from the working directory
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

// describeValidation turns validator errors into one line per offending field.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		problems = append(problems, fmt.Sprintf("%s: failed '%s'", field, rule))
	}
	return errors.New(strings.Join(problems, "; "))
}
