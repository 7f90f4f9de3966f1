package coding

import (
	"testing"

	"github.com/hupe1980/postcodes/model"
	"github.com/hupe1980/postcodes/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_RoundTrip(t *testing.T) {
	rng := testutil.NewRNG(42)

	fixed := []model.Point{
		{Lon: 0, Lat: 0},
		{Lon: 0.1, Lat: 0.1},
		{Lon: -180, Lat: -90},
		{Lon: 180, Lat: 90},
		{Lon: -0.127758, Lat: 51.507351},
	}
	for range 1000 {
		fixed = append(fixed, rng.Point())
	}

	for _, p := range fixed {
		buf, err := AppendPoint(nil, p)
		require.NoError(t, err)
		require.Len(t, buf, RecordSize)

		got, err := ReadPoint(buf)
		require.NoError(t, err)
		assert.True(t, got.AlmostEqual(p, PointAccuracy), "want %v, got %v", p, got)
	}
}

func TestPoint_OutOfBounds(t *testing.T) {
	_, err := AppendPoint(nil, model.Point{Lon: 181, Lat: 0})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = AppendPoint(nil, model.Point{Lon: 0, Lat: -90.5})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestReadPoint_Invalid(t *testing.T) {
	_, err := ReadPoint(make([]byte, RecordSize-1))
	assert.ErrorIs(t, err, ErrShortRecord)

	buf := []byte{0, 0, 0, 0xC0, 0, 0, 0, 0}
	_, err = ReadPoint(buf)
	assert.ErrorIs(t, err, ErrReservedBits)
}

func TestQuantize_Clamps(t *testing.T) {
	assert.Equal(t, uint32(0), Quantize(-1000, MinLon, MaxLon))
	assert.Equal(t, CoordMask, Quantize(1000, MinLon, MaxLon))
	assert.InDelta(t, MaxLat, Dequantize(CoordMask, MinLat, MaxLat), 1e-12)
}
