package phase3

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestBudget(t *testing.T) *BudgetTracker {
	t.Helper()
	tracker, err := OpenBudgetTracker(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tracker.Close() })
	return tracker
}

func TestBudgetTracker_AddAccumulatesWithinADay(t *testing.T) {
	tracker := openTestBudget(t)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	total, err := tracker.Add(now, 5.5)
	require.NoError(t, err)
	assert.Equal(t, 5.5, total)

	total, err = tracker.Add(now.Add(time.Hour), 2.5)
	require.NoError(t, err)
	assert.Equal(t, 8.0, total)
}

func TestBudgetTracker_SeparatesDays(t *testing.T) {
	tracker := openTestBudget(t)
	day1 := time.Date(2026, 1, 15, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 16, 1, 0, 0, 0, time.UTC)

	_, err := tracker.Add(day1, 10)
	require.NoError(t, err)

	spent, err := tracker.Spent(day2)
	require.NoError(t, err)
	assert.Equal(t, 0.0, spent)
}

func TestBudgetTracker_ExceededReportsAtOrAboveCeiling(t *testing.T) {
	tracker := openTestBudget(t)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	exceeded, err := tracker.Exceeded(now, 10)
	require.NoError(t, err)
	assert.False(t, exceeded)

	_, err = tracker.Add(now, 10)
	require.NoError(t, err)

	exceeded, err = tracker.Exceeded(now, 10)
	require.NoError(t, err)
	assert.True(t, exceeded)
}
