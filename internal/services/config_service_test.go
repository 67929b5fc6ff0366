package services

import (
	"testing"

	"crop-monitor-service/internal/apperr"
	"crop-monitor-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE 1: GRID MATH
// ============================================================================

func TestComputeGrid_StandardField(t *testing.T) {
	rows, cols, err := ComputeGrid(100, 50, 25)

	require.NoError(t, err)
	assert.Equal(t, 4, rows, "100m width at 25m spacing gives 4 rows")
	assert.Equal(t, 2, cols, "50m height at 25m spacing gives 2 cols")
}

func TestComputeGrid_RoundsUpPartialZones(t *testing.T) {
	rows, cols, err := ComputeGrid(101, 55, 25)

	require.NoError(t, err)
	assert.Equal(t, 5, rows, "Partial coverage still gets a zone")
	assert.Equal(t, 3, cols)
}

func TestComputeGrid_SpacingLargerThanField(t *testing.T) {
	rows, cols, err := ComputeGrid(10, 10, 25)

	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, cols)
}

func TestComputeGrid_RejectsNonPositiveDimensions(t *testing.T) {
	cases := []struct {
		name          string
		w, h, spacing float64
	}{
		{"zero width", 0, 50, 25},
		{"negative height", 100, -1, 25},
		{"zero spacing", 100, 50, 0},
	}
	for _, c := range cases {
		_, _, err := ComputeGrid(c.w, c.h, c.spacing)
		assert.ErrorIs(t, err, apperr.ErrValidation, c.name)
	}
}

// ============================================================================
// TEST SUITE 2: ZONE LAYOUT
// ============================================================================

func TestBuildZones_RowMajorIndices(t *testing.T) {
	zones := BuildZones(4, 2)

	require.Len(t, zones, 8)
	for i, z := range zones {
		assert.Equal(t, i, z.ZoneIndex, "Zones come out ordered by index")
		assert.Equal(t, i/2, z.ZoneRow)
		assert.Equal(t, i%2, z.ZoneCol)
		assert.Equal(t, models.SensorActive, z.Status, "New zones start active")
	}
}

func TestBuildZones_PositionsUnique(t *testing.T) {
	zones := BuildZones(3, 5)

	seen := map[[2]int]bool{}
	for _, z := range zones {
		pos := [2]int{z.ZoneRow, z.ZoneCol}
		assert.False(t, seen[pos], "Duplicate position %v", pos)
		seen[pos] = true
	}
	assert.Len(t, seen, 15)
}

func TestBuildZones_NoLastReading(t *testing.T) {
	zones := BuildZones(2, 2)

	for _, z := range zones {
		assert.Nil(t, z.LastReadingAt, "A zone that never reported has no reading timestamp")
	}
}
