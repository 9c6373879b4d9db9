package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoGPU_AlwaysZero(t *testing.T) {
	pct, err := noGPU{}.Percent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(0), pct)
}

func TestDetectGPUProbe_FallsBackWhenNvidiaSMIAbsent(t *testing.T) {
	probe := DetectGPUProbe()
	require.NotNil(t, probe)
}

func TestNvidiaSMIProbe_MissingBinaryErrors(t *testing.T) {
	probe := NvidiaSMIProbe{Path: "/nonexistent/nvidia-smi"}
	_, err := probe.Percent(context.Background())
	assert.Error(t, err)
}
