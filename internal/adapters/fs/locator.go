package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ModuleLocator = (*Locator)(nil)

// Locator maps import references to module files by probing the filesystem.
type Locator struct {
	systemDirs []string
}

// NewLocator creates a Locator that searches systemDirs after every other library root.
func NewLocator(systemDirs []string) *Locator {
	return &Locator{systemDirs: systemDirs}
}

// Canonical returns the absolute, symlink free form of path.
func (l *Locator) Canonical(path string) (domain.ModuleID, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve absolute path"), "path", path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrModuleNotFound.Error()), "path", abs)
	}
	return domain.ModuleID(filepath.Clean(resolved)), nil
}

// Locate probes the candidate files of ref in order and returns the first
// regular file found. It returns a *domain.ImportNotFoundError listing every
// probed path otherwise.
func (l *Locator) Locate(
	importer domain.ModuleID,
	ref domain.ImportRef,
	paths domain.SearchPaths,
) (domain.ModuleID, error) {
	candidates := l.candidates(importer, ref, paths)
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return l.Canonical(candidate)
	}
	return "", &domain.ImportNotFoundError{
		Importer: importer,
		Ref:      ref,
		Probed:   candidates,
	}
}

func (l *Locator) candidates(importer domain.ModuleID, ref domain.ImportRef, paths domain.SearchPaths) []string {
	ext := paths.Extension
	if ext == "" {
		ext = domain.DefaultExtension
	}
	index := paths.IndexName
	if index == "" {
		index = domain.DefaultIndexName
	}
	dir := filepath.Dir(string(importer))

	switch ref.Kind {
	case domain.ImportRelative:
		base := filepath.Join(dir, filepath.FromSlash(ref.Path))
		if strings.HasSuffix(base, ext) {
			return []string{base}
		}
		return []string{base + ext, filepath.Join(base, index+ext)}
	case domain.ImportDirectory:
		return []string{filepath.Join(dir, filepath.FromSlash(ref.Path), index+ext)}
	case domain.ImportLibrary:
		rel := filepath.Join(strings.Split(ref.Path, ".")...)
		var out []string
		for _, root := range l.libraryRoots(dir, paths.LibraryRoots) {
			base := filepath.Join(root, rel)
			out = append(out, base+ext, filepath.Join(base, index+ext))
		}
		return out
	default:
		return nil
	}
}

// libraryRoots lists the configured roots, every ancestor library directory
// of dir and the system directories, without duplicates.
func (l *Locator) libraryRoots(dir string, configured []string) []string {
	roots := make([]string, 0, len(configured)+len(l.systemDirs)+4)
	add := func(root string) {
		if root != "" && !slices.Contains(roots, root) {
			roots = append(roots, root)
		}
	}

	for _, root := range configured {
		add(filepath.Clean(root))
	}
	for current := dir; ; current = filepath.Dir(current) {
		add(filepath.Join(current, domain.LibraryDirName))
		if filepath.Dir(current) == current {
			break
		}
	}
	for _, root := range l.systemDirs {
		add(root)
	}
	return roots
}
