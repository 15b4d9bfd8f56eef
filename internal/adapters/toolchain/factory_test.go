//go:build unix

package toolchain_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/toolchain"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestFactory_ForProject(t *testing.T) {
	root := t.TempDir()
	tools := filepath.Join(root, "tools")
	require.NoError(t, os.MkdirAll(tools, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(tools, "kfe"), []byte("#!/bin/sh\n"), 0o700))

	ctrl := gomock.NewController(t)
	factory := toolchain.NewFactory(mocks.NewMockLogger(ctrl))

	tc, err := factory.ForProject(&domain.Project{
		Root:            root,
		CompilerCommand: []string{"./tools/kfe", "--quiet"},
		LinkerCommand:   []string{"sh"},
	})
	require.NoError(t, err)
	assert.NotNil(t, tc.Resolver)
	assert.NotNil(t, tc.Compiler)
	assert.NotNil(t, tc.Linker)
}

func TestFactory_ForProject_MissingCommands(t *testing.T) {
	root := t.TempDir()
	ctrl := gomock.NewController(t)
	factory := toolchain.NewFactory(mocks.NewMockLogger(ctrl))

	_, err := factory.ForProject(&domain.Project{
		Root:            root,
		CompilerCommand: []string{"./missing-frontend"},
		LinkerCommand:   []string{"sh"},
	})
	require.ErrorContains(t, err, domain.ErrFrontendFailed.Error())

	_, err = factory.ForProject(&domain.Project{
		Root:            root,
		CompilerCommand: []string{"sh"},
		LinkerCommand:   []string{"kiln-missing-linker"},
	})
	require.ErrorContains(t, err, domain.ErrLinkerFailed.Error())

	_, err = factory.ForProject(&domain.Project{Root: root, LinkerCommand: []string{"sh"}})
	require.ErrorContains(t, err, "empty command")
}
