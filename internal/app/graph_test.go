package app_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/app"
)

func TestApp_Graph(t *testing.T) {
	tests := []struct {
		name string
		dot  bool
	}{
		{name: "graph_listing"},
		{name: "graph_dot", dot: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, diamondSources)

			require.NoError(t, f.app.Graph(t.Context(), app.GraphOptions{Dot: tt.dot}))

			g := goldie.New(t)
			g.Assert(t, tt.name, f.stdout.Bytes())
			require.Empty(t, f.compiledModules())
		})
	}
}
