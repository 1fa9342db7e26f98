package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFallbackPoints verifies the nine-point sample: three per location, with
// erosion at Cape Cod and Martha's Vineyard and accretion at Boston Harbor.
func TestFallbackPoints(t *testing.T) {
	points := FallbackPoints()
	require.Len(t, points, 9)

	counts := map[string]int{}
	for _, p := range points {
		counts[p.Location]++
		assert.True(t, p.HasPosition(), p.TransectID)
		if p.Location == "Boston Harbor" {
			assert.Positive(t, p.ErosionRate, p.TransectID)
		} else {
			assert.Negative(t, p.ErosionRate, p.TransectID)
		}
	}
	assert.Equal(t, map[string]int{"Cape Cod": 3, "Martha's Vineyard": 3, "Boston Harbor": 3}, counts)

	assert.Equal(t, "CC-001", points[0].TransectID)
	assert.InDelta(t, 42.0565, points[0].Latitude, 1e-9)
	assert.InDelta(t, -70.1844, points[0].Longitude, 1e-9)
	assert.Equal(t, "MV-003", points[5].TransectID)
	assert.InDelta(t, -54, points[5].ShorelineChange, 1e-9)
	assert.Equal(t, "BH-003", points[8].TransectID)
	assert.InDelta(t, 0.5, points[8].ErosionRate, 1e-9)
}

func TestFallbackPoints_FreshCopy(t *testing.T) {
	a := FallbackPoints()
	a[0].Location = "changed"
	assert.Equal(t, "Cape Cod", FallbackPoints()[0].Location)
}
