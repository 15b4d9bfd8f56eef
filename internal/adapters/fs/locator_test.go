package fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("// "+filepath.Base(path)), 0o600))
}

// setupProject creates a project tree and returns its canonical root and importer.
func setupProject(t *testing.T) (string, domain.ModuleID) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	main := filepath.Join(root, "src", "main.kn")
	writeFile(t, main)
	return root, domain.ModuleID(main)
}

var defaultPaths = domain.SearchPaths{
	Extension: domain.DefaultExtension,
	IndexName: domain.DefaultIndexName,
}

func TestLocator_Relative(t *testing.T) {
	root, importer := setupProject(t)
	writeFile(t, filepath.Join(root, "src", "util.kn"))
	writeFile(t, filepath.Join(root, "src", "net", "mod.kn"))

	l := fs.NewLocator(nil)

	got, err := l.Locate(importer, domain.ImportRef{Kind: domain.ImportRelative, Path: "./util"}, defaultPaths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "src", "util.kn")), got)

	got, err = l.Locate(importer, domain.ImportRef{Kind: domain.ImportRelative, Path: "./util.kn"}, defaultPaths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "src", "util.kn")), got)

	got, err = l.Locate(importer, domain.ImportRef{Kind: domain.ImportRelative, Path: "./net"}, defaultPaths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "src", "net", "mod.kn")), got)
}

func TestLocator_Directory(t *testing.T) {
	root, importer := setupProject(t)
	writeFile(t, filepath.Join(root, "src", "http", "mod.kn"))

	got, err := fs.NewLocator(nil).Locate(
		importer, domain.ImportRef{Kind: domain.ImportDirectory, Path: "http"}, defaultPaths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "src", "http", "mod.kn")), got)
}

func TestLocator_LibraryOrder(t *testing.T) {
	root, importer := setupProject(t)
	configured := filepath.Join(root, "vendor")
	system := filepath.Join(root, "system")

	writeFile(t, filepath.Join(system, "std", "math.kn"))
	l := fs.NewLocator([]string{system})
	paths := defaultPaths
	paths.LibraryRoots = []string{configured}
	ref := domain.ImportRef{Kind: domain.ImportLibrary, Path: "std.math"}

	got, err := l.Locate(importer, ref, paths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(system, "std", "math.kn")), got)

	// An ancestor library directory wins over the system directories.
	writeFile(t, filepath.Join(root, "library", "std", "math", "mod.kn"))
	got, err = l.Locate(importer, ref, paths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "library", "std", "math", "mod.kn")), got)

	// Configured roots win over everything else.
	writeFile(t, filepath.Join(configured, "std", "math.kn"))
	got, err = l.Locate(importer, ref, paths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(configured, "std", "math.kn")), got)
}

func TestLocator_NotFoundListsProbedPaths(t *testing.T) {
	root, importer := setupProject(t)

	_, err := fs.NewLocator(nil).Locate(
		importer, domain.ImportRef{Kind: domain.ImportRelative, Path: "./missing"}, defaultPaths)
	require.Error(t, err)

	var notFound *domain.ImportNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, importer, notFound.Importer)
	assert.Equal(t, []string{
		filepath.Join(root, "src", "missing.kn"),
		filepath.Join(root, "src", "missing", "mod.kn"),
	}, notFound.Probed)
	assert.True(t, errors.Is(err, domain.ErrModuleNotFound))
}

func TestLocator_CanonicalResolvesSymlinks(t *testing.T) {
	root, importer := setupProject(t)
	link := filepath.Join(root, "alias.kn")
	require.NoError(t, os.Symlink(string(importer), link))

	got, err := fs.NewLocator(nil).Canonical(link)
	require.NoError(t, err)
	assert.Equal(t, importer, got)
}

func TestLocator_CustomExtension(t *testing.T) {
	root, importer := setupProject(t)
	writeFile(t, filepath.Join(root, "src", "lib", "index.src"))

	paths := domain.SearchPaths{Extension: ".src", IndexName: "index"}
	got, err := fs.NewLocator(nil).Locate(
		importer, domain.ImportRef{Kind: domain.ImportDirectory, Path: "lib"}, paths)
	require.NoError(t, err)
	assert.Equal(t, domain.ModuleID(filepath.Join(root, "src", "lib", "index.src")), got)
}
