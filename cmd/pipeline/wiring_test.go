package main

import (
	"testing"

	"github.com/cuemby/docpipeline/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePhase_AcceptsEveryDocumentedPhase(t *testing.T) {
	cases := map[string]types.Phase{
		"phase1": types.Phase1,
		"phase2": types.Phase2,
		"phase3": types.Phase3,
		"phase4": types.Phase4,
		"phase5": types.Phase5,
	}
	for arg, want := range cases {
		got, err := parsePhase(arg)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParsePhase_RejectsUnknown(t *testing.T) {
	_, err := parsePhase("phase9")
	assert.Error(t, err)
}
