package linear_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/linear"
	"go.trai.ch/kiln/internal/core/ports"
)

func TestRenderer_Lifecycle(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := linear.NewRenderer(&buf)
	require.NoError(t, r.Start(t.Context()))

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r.OnPlanEmit([]string{"lib/util.kn", "lib/fmt.kn", "src/main.kn", "src/extra.kn"})

	r.OnModuleStart("s1", "lib/util.kn", start)
	r.OnModuleStart("s2", "lib/fmt.kn", start)
	r.OnModuleComplete("s1", start.Add(120*time.Millisecond), ports.OutcomeCompiled, nil)
	r.OnModuleComplete("s2", start.Add(5*time.Millisecond), ports.OutcomeCached, nil)

	r.OnModuleStart("s3", "src/main.kn", start)
	r.OnModuleComplete("s3", start.Add(2*time.Second),
		ports.OutcomeFailed, errors.New("compilation failed: src/main.kn\nmain.kn:3: type mismatch"))

	r.OnModuleStart("s4", "src/extra.kn", start)
	r.OnModuleComplete("s4", start, ports.OutcomeSkipped, nil)

	require.NoError(t, r.Stop())
	require.NoError(t, r.Wait())

	g := goldie.New(t)
	g.Assert(t, "lifecycle", buf.Bytes())
}

func TestRenderer_UnknownSpanIgnored(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := linear.NewRenderer(&buf)
	r.OnModuleComplete("missing", time.Now(), ports.OutcomeCompiled, nil)
	assert.Empty(t, buf.String())
}

func TestRenderer_StopReportsUnfinished(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	r := linear.NewRenderer(&buf)
	r.OnModuleStart("s1", "src/slow.kn", time.Now())
	require.NoError(t, r.Stop())

	assert.Equal(t, "[src/slow.kn] ○ Interrupted\n", buf.String())
}
