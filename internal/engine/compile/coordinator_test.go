package compile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/compile"
	"go.uber.org/mock/gomock"
)

var (
	mainModule = &domain.ModuleNode{ID: "/p/src/main.kn", Source: []byte("fn main() {}")}
	mainKey    = domain.CacheKey{ModuleID: "/p/src/main.kn", SourceHash: 1, CompilerVersion: "0.4.1"}
	mainSig    = domain.Signature{Items: []domain.ExportedItem{{Name: "main", Kind: "fn", Type: "() -> ()"}}}
)

func newConfig(t *testing.T) compile.Config {
	t.Helper()
	return compile.Config{
		Root:       "/p",
		ScratchDir: filepath.Join(t.TempDir(), "build-1"),
		Flags:      domain.CompilerFlags{OptLevel: 2},
	}
}

func TestCoordinator_Compile(t *testing.T) {
	ctrl := gomock.NewController(t)
	compiler := mocks.NewMockCompiler(ctrl)
	store := cas.NewMemoryStore()
	hasher := fs.NewHasher()
	cfg := newConfig(t)

	deps := map[domain.ModuleID]domain.Signature{
		"/p/src/util.kn": {Items: []domain.ExportedItem{{Name: "helper", Kind: "fn", Type: "() -> int"}}},
	}

	compiler.EXPECT().CompileModule(gomock.Any(), ports.CompileRequest{
		Module:       mainModule.ID,
		Source:       mainModule.Source,
		Dependencies: deps,
		Flags:        cfg.Flags,
	}).Return(&ports.CompileOutput{Object: []byte("object"), Signature: mainSig}, nil)

	c := compile.NewCoordinator(cfg, compiler, store, hasher, mocks.NewMockLogger(ctrl))
	artifact, err := c.Compile(t.Context(), mainModule, deps, mainKey)
	require.NoError(t, err)

	assert.Equal(t, mainModule.ID, artifact.Module)
	assert.False(t, artifact.Cached)
	assert.Equal(t, mainSig, artifact.Signature)
	assert.Equal(t, hasher.HashSignature(mainSig.Items), artifact.SignatureHash)
	assert.Equal(t, cfg.ScratchDir, filepath.Dir(artifact.Path))

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, "object", string(data))

	entry, ok := store.Get(t.Context(), mainKey)
	require.True(t, ok)
	assert.Equal(t, artifact.SignatureHash, entry.SignatureHash)
	stored, ok := store.Artifact(mainKey)
	require.True(t, ok)
	assert.Equal(t, "object", string(stored))
}

func TestCoordinator_CompileSendsEmptyDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	compiler := mocks.NewMockCompiler(ctrl)

	compiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req ports.CompileRequest) (*ports.CompileOutput, error) {
			assert.NotNil(t, req.Dependencies)
			assert.Empty(t, req.Dependencies)
			return &ports.CompileOutput{Object: []byte("o")}, nil
		})

	c := compile.NewCoordinator(newConfig(t), compiler, cas.NewMemoryStore(), fs.NewHasher(), mocks.NewMockLogger(ctrl))
	_, err := c.Compile(t.Context(), mainModule, nil, mainKey)
	require.NoError(t, err)
}

func TestCoordinator_CompilerFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{
			name:    "plain error is wrapped",
			err:     errors.New("frontend crashed"),
			wantErr: "frontend crashed",
		},
		{
			name:    "compile error passes through",
			err:     &domain.CompileError{Module: mainModule.ID, Stderr: "main.kn:1: expected '}'"},
			wantErr: "main.kn:1: expected '}'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			compiler := mocks.NewMockCompiler(ctrl)
			compiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			store := cas.NewMemoryStore()
			c := compile.NewCoordinator(newConfig(t), compiler, store, fs.NewHasher(), mocks.NewMockLogger(ctrl))
			_, err := c.Compile(t.Context(), mainModule, nil, mainKey)

			var compileErr *domain.CompileError
			require.ErrorAs(t, err, &compileErr)
			assert.Equal(t, mainModule.ID, compileErr.Module)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, ok := store.Get(t.Context(), mainKey)
			assert.False(t, ok)
		})
	}
}

func TestCoordinator_CachePutFailureKeepsScratch(t *testing.T) {
	ctrl := gomock.NewController(t)
	compiler := mocks.NewMockCompiler(ctrl)
	store := mocks.NewMockCacheStore(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	compiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).
		Return(&ports.CompileOutput{Object: []byte("object"), Signature: mainSig}, nil)
	store.EXPECT().Put(gomock.Any(), mainKey, []byte("object"), mainSig, gomock.Any()).
		Return(nil, domain.ErrCacheIndexWriteFailed)
	logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "src/main.kn")
		assert.Contains(t, msg, domain.ErrCacheIndexWriteFailed.Error())
	})

	c := compile.NewCoordinator(newConfig(t), compiler, store, fs.NewHasher(), logger)
	artifact, err := c.Compile(t.Context(), mainModule, nil, mainKey)
	require.NoError(t, err)
	assert.FileExists(t, artifact.Path)
}

func TestCoordinator_ScratchWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	compiler := mocks.NewMockCompiler(ctrl)
	compiler.EXPECT().CompileModule(gomock.Any(), gomock.Any()).
		Return(&ports.CompileOutput{Object: []byte("object")}, nil)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	cfg := newConfig(t)
	cfg.ScratchDir = filepath.Join(blocker, "scratch")

	c := compile.NewCoordinator(cfg, compiler, cas.NewMemoryStore(), fs.NewHasher(), mocks.NewMockLogger(ctrl))
	_, err := c.Compile(t.Context(), mainModule, nil, mainKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrScratchWriteFailed.Error())
}

func TestObjectName(t *testing.T) {
	nested := compile.ObjectName("/p", "/p/src/net/http.kn")
	flat := compile.ObjectName("/p", "/p/src/net_http.kn")

	assert.Regexp(t, regexp.MustCompile(`^src_net_http-[0-9a-f]{8}\.o$`), nested)
	assert.Regexp(t, regexp.MustCompile(`^src_net_http-[0-9a-f]{8}\.o$`), flat)
	assert.NotEqual(t, nested, flat)
	assert.Equal(t, nested, compile.ObjectName("/p", "/p/src/net/http.kn"))
}
