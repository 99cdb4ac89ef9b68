package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextFireDaily(t *testing.T) {
	after := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	next, err := NextFire("0 2 * * *", "UTC", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC), next)
}

func TestNextFireEvaluatesInZone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	after := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	next, err := NextFire("0 9 * * *", "America/New_York", after)
	require.NoError(t, err)
	assert.Equal(t, 9, next.In(loc).Hour())
}

// A daily 02:00 schedule must fire exactly once per local day across
// the spring-forward transition, on the adjusted wall clock.
func TestNextFireAcrossSpringForward(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08: 02:00 EST does not exist, clocks jump 02:00 -> 03:00
	after := time.Date(2026, 3, 7, 12, 0, 0, 0, loc)

	first, err := NextFire("0 2 * * *", "America/New_York", after)
	require.NoError(t, err)
	second, err := NextFire("0 2 * * *", "America/New_York", first)
	require.NoError(t, err)

	assert.Equal(t, 8, first.In(loc).Day())
	// 02:00 does not exist on the 8th; the fire lands on the shifted wall
	assert.Equal(t, 3, first.In(loc).Hour())
	assert.Equal(t, 9, second.In(loc).Day())
	assert.Equal(t, 2, second.In(loc).Hour())
	// one fire per local day, never zero, never two
	assert.True(t, second.Sub(first) > 12*time.Hour)
	assert.True(t, second.Sub(first) <= 25*time.Hour)
}

func TestNextFireAcrossFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-11-01: 01:00-02:00 EDT repeats as EST
	after := time.Date(2026, 10, 31, 12, 0, 0, 0, loc)

	first, err := NextFire("0 2 * * *", "America/New_York", after)
	require.NoError(t, err)
	second, err := NextFire("0 2 * * *", "America/New_York", first)
	require.NoError(t, err)

	assert.Equal(t, 1, first.In(loc).Day())
	assert.Equal(t, 2, second.In(loc).Day())
	assert.Equal(t, 2, first.In(loc).Hour())
	assert.Equal(t, 2, second.In(loc).Hour())
}

func TestValidateRecurrence(t *testing.T) {
	assert.NoError(t, ValidateRecurrence("0 2 * * *", "Europe/Berlin"))
	assert.NoError(t, ValidateRecurrence("*/5 * * * *", ""))
	assert.Error(t, ValidateRecurrence("not a cron", "UTC"))
	assert.Error(t, ValidateRecurrence("0 2 * * *", "Mars/Olympus"))
	assert.Error(t, ValidateRecurrence("0 0 0 0 0", "UTC"))
}
