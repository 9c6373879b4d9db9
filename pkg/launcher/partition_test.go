package launcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_DividesEvenlyWhenDivisible(t *testing.T) {
	ranges, err := Split(Range{From: 0, To: 100}, 4)
	require.NoError(t, err)
	require.Len(t, ranges, 4)
	for _, r := range ranges {
		assert.Equal(t, 25, r.Len())
	}
	assert.Equal(t, Range{From: 0, To: 25}, ranges[0])
	assert.Equal(t, Range{From: 75, To: 100}, ranges[3])
}

func TestSplit_DistributesRemainderToFirstRanges(t *testing.T) {
	ranges, err := Split(Range{From: 0, To: 10}, 3)
	require.NoError(t, err)
	require.Len(t, ranges, 3)
	assert.Equal(t, 4, ranges[0].Len())
	assert.Equal(t, 3, ranges[1].Len())
	assert.Equal(t, 3, ranges[2].Len())

	total := 0
	for _, r := range ranges {
		total += r.Len()
	}
	assert.Equal(t, 10, total)
}

func TestSplit_CapsInstanceCountToRangeSize(t *testing.T) {
	ranges, err := Split(Range{From: 0, To: 2}, 5)
	require.NoError(t, err)
	assert.Len(t, ranges, 2)
	for _, r := range ranges {
		assert.Equal(t, 1, r.Len())
	}
}

func TestSplit_EmptyRangeReturnsNoSubRanges(t *testing.T) {
	ranges, err := Split(Range{From: 5, To: 5}, 3)
	require.NoError(t, err)
	assert.Nil(t, ranges)
}

func TestSplit_RejectsNonPositiveInstanceCount(t *testing.T) {
	_, err := Split(Range{From: 0, To: 10}, 0)
	assert.Error(t, err)
}
