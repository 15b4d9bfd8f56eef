package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/detector"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		isTTY bool
		ci    string
		want  detector.OutputMode
	}{
		{"terminal", true, "", detector.ModeTUI},
		{"terminal with CI=false", true, "false", detector.ModeTUI},
		{"terminal with CI=true", true, "true", detector.ModeLinear},
		{"terminal with CI=1", true, "1", detector.ModeLinear},
		{"pipe", false, "", detector.ModeLinear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.isTTY, tt.ci))
		})
	}
}

func TestDetectEnvironment_CI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.Equal(t, detector.ModeLinear, detector.DetectEnvironment())
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name     string
		auto     detector.OutputMode
		userFlag string
		want     detector.OutputMode
	}{
		{"auto keeps TUI", detector.ModeTUI, "auto", detector.ModeTUI},
		{"auto keeps linear", detector.ModeLinear, "auto", detector.ModeLinear},
		{"empty keeps detection", detector.ModeTUI, "", detector.ModeTUI},
		{"tui overrides", detector.ModeLinear, "tui", detector.ModeTUI},
		{"linear overrides", detector.ModeTUI, "linear", detector.ModeLinear},
		{"ci alias", detector.ModeTUI, "ci", detector.ModeLinear},
		{"unknown keeps detection", detector.ModeTUI, "fancy", detector.ModeTUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ResolveMode(tt.auto, tt.userFlag))
		})
	}
}

func TestOutputMode_String(t *testing.T) {
	assert.Equal(t, "auto", detector.ModeAuto.String())
	assert.Equal(t, "tui", detector.ModeTUI.String())
	assert.Equal(t, "linear", detector.ModeLinear.String())
}
