package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	input := "lat,lon,value\n44.98,-93.26,12.5\n45.10,-93.00,8.0\n"

	samples, err := ParseCSV(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 44.98, samples[0].Lat)
	assert.Equal(t, -93.26, samples[0].Lon)
	assert.Equal(t, 12.5, samples[0].Value)
}

func TestParseCSV_CustomColumns(t *testing.T) {
	input := "station,Latitude,Longitude,rainfall_mm\nA,10,20,1.5\nB,11,21,2.5\n"

	samples, err := ParseCSV(context.Background(), strings.NewReader(input), Options{
		LatColumn:   "latitude",
		LonColumn:   "longitude",
		ValueColumn: "rainfall_mm",
	})
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 1.5, samples[0].Value)
	assert.Equal(t, 21.0, samples[1].Lon)
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing column", input: "lat,lon\n1,2\n"},
		{name: "bad latitude", input: "lat,lon,value\nxx,2,3\n"},
		{name: "bad value", input: "lat,lon,value\n1,2,abc\n"},
		{name: "lat out of range", input: "lat,lon,value\n95,2,3\n"},
		{name: "lon out of range", input: "lat,lon,value\n45,200,3\n"},
		{name: "short record", input: "lat,lon,value\n1,2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(context.Background(), strings.NewReader(tt.input), Options{})
			assert.Error(t, err)
		})
	}
}

func TestParseCSV_Empty(t *testing.T) {
	samples, err := ParseCSV(context.Background(), strings.NewReader("lat,lon,value\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, samples)
}
