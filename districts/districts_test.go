package districts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllDistrictsWellFormed(t *testing.T) {
	require.Len(t, All, 11)
	seen := map[string]struct{}{}
	for _, d := range All {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Name)
		assert.NotEmpty(t, d.Color)
		_, dup := seen[d.ID]
		assert.False(t, dup, "duplicate district id %s", d.ID)
		seen[d.ID] = struct{}{}
	}
}

func TestResolve(t *testing.T) {
	cfg := Config{
		Centers: map[string]Point{
			"old-town":  {X: 0, Y: 0},
			"the-docks": {X: 0.9, Y: 0.9},
		},
		RadiusScale: 1.0,
	}

	t.Run("PointAtCenterResolvesToThatDistrict", func(t *testing.T) {
		id, ok := cfg.Resolve(Point{X: 0, Y: 0})
		require.True(t, ok)
		assert.Equal(t, "old-town", id)
	})

	t.Run("PointOutsideEveryZoneResolvesToNone", func(t *testing.T) {
		_, ok := cfg.Resolve(Point{X: -0.9, Y: 0.9})
		assert.False(t, ok)
	})

	t.Run("PointInsideOverlappingZonesStaysUnassigned", func(t *testing.T) {
		overlapping := Config{
			Centers: map[string]Point{
				"old-town":  {X: 0, Y: 0},
				"the-docks": {X: 0.1, Y: 0},
			},
			RadiusScale: 1.0,
		}
		// halfway between the two centers, inside both zones
		_, ok := overlapping.Resolve(Point{X: 0.05, Y: 0})
		assert.False(t, ok)
	})

	t.Run("OverrideShrinksZone", func(t *testing.T) {
		shrunk := Config{
			Centers:         map[string]Point{"old-town": {X: 0, Y: 0}},
			RadiusScale:     1.0,
			RadiusOverrides: map[string]float64{"old-town": 0.05},
		}
		_, ok := shrunk.Resolve(Point{X: 0.1, Y: 0})
		assert.False(t, ok)
		id, ok := shrunk.Resolve(Point{X: 0.04, Y: 0})
		require.True(t, ok)
		assert.Equal(t, "old-town", id)
	})
}

func TestEffectiveRadius(t *testing.T) {
	cfg := Config{
		RadiusScale:     1.5,
		RadiusOverrides: map[string]float64{"ashgate": 0.07},
	}
	assert.InDelta(t, 0.07, cfg.EffectiveRadius("ashgate"), 1e-9)
	assert.InDelta(t, 1.5*BaseRadius, cfg.EffectiveRadius("old-town"), 1e-9)
}

func TestWorldNormRoundTrip(t *testing.T) {
	b := Bounds{MinX: -500, MaxX: 1500, MinZ: -250, MaxZ: 750}
	tcs := []struct {
		name string
		x, z float64
	}{
		{name: "Center", x: 500, z: 250},
		{name: "MinCorner", x: -500, z: -250},
		{name: "MaxCorner", x: 1500, z: 750},
		{name: "Arbitrary", x: 123.5, z: -41.25},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			p := WorldToNorm(c.x, c.z, b)
			assert.GreaterOrEqual(t, p.X, -1.0)
			assert.LessOrEqual(t, p.X, 1.0)
			x, z := NormToWorld(p, b)
			assert.InDelta(t, c.x, x, 1e-9)
			assert.InDelta(t, c.z, z, 1e-9)
		})
	}
}

func TestWorldToNormDegenerateBounds(t *testing.T) {
	p := WorldToNorm(12, 34, Bounds{})
	assert.Equal(t, Point{}, p)
}

func TestConfigValidate(t *testing.T) {
	tcs := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{
			name: "Valid",
			cfg: Config{
				Centers:     map[string]Point{"old-town": {X: 0.5, Y: -0.5}},
				RadiusScale: 1.0,
			},
		},
		{
			name:   "NonPositiveScale",
			cfg:    Config{RadiusScale: 0},
			errMsg: "radiusScale",
		},
		{
			name: "UnknownDistrictCenter",
			cfg: Config{
				Centers:     map[string]Point{"atlantis": {}},
				RadiusScale: 1.0,
			},
			errMsg: "unknown district",
		},
		{
			name: "CenterOutOfRange",
			cfg: Config{
				Centers:     map[string]Point{"old-town": {X: 1.5}},
				RadiusScale: 1.0,
			},
			errMsg: "within [-1, 1]",
		},
		{
			name: "NegativeOverride",
			cfg: Config{
				RadiusScale:     1.0,
				RadiusOverrides: map[string]float64{"old-town": -0.1},
			},
			errMsg: "must be positive",
		},
		{
			name: "InvertedBounds",
			cfg: Config{
				RadiusScale: 1.0,
				Bounds:      &Bounds{MinX: 10, MaxX: -10, MinZ: 0, MaxZ: 1},
			},
			errMsg: "bounds",
		},
	}
	for _, c := range tcs {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if c.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.errMsg)
		})
	}
}

func TestDefaultConfigCoversAllDistricts(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	for _, d := range All {
		_, ok := cfg.Centers[d.ID]
		assert.True(t, ok, "missing center for %s", d.ID)
	}
}
