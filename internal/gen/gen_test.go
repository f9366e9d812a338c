package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/surfacer/internal/interp"
)

var testBBox = interp.BBox{MinLat: 44, MinLon: -94, MaxLat: 46, MaxLon: -92}

func TestGenerate_CountAndBounds(t *testing.T) {
	samples, err := Generate(Config{BBox: testBBox, Count: 200, Seed: 1})
	require.NoError(t, err)
	require.Len(t, samples, 200)

	for _, s := range samples {
		assert.True(t, testBBox.Contains(interp.Point{Lat: s.Lat, Lon: s.Lon}))
	}
}

func TestGenerate_SeedDeterminism(t *testing.T) {
	cfg := Config{BBox: testBBox, Count: 50, Seed: 42, Noise: 2}

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same seed must reproduce the dataset")

	cfg.Seed = 43
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGenerate_CustomHills(t *testing.T) {
	cfg := Config{
		BBox:  testBBox,
		Count: 100,
		Seed:  7,
		Hills: []Hill{{Lat: 45, Lon: -93, Amp: 10, Spread: 0.5}},
	}
	samples, err := Generate(cfg)
	require.NoError(t, err)

	// A single positive hill with no noise keeps values in (0, amp].
	for _, s := range samples {
		assert.Greater(t, s.Value, 0.0)
		assert.LessOrEqual(t, s.Value, 10.0)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	_, err := Generate(Config{BBox: testBBox, Count: 0})
	assert.Error(t, err)

	_, err = Generate(Config{BBox: interp.BBox{MinLat: 1, MaxLat: 0, MinLon: 0, MaxLon: 1}, Count: 10})
	assert.Error(t, err)
}
