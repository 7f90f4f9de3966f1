package testutil

import (
	"testing"

	"github.com/hupe1980/postcodes/model"
	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(7)
	b := NewRNG(7)
	for range 10 {
		assert.Equal(t, a.Point(), b.Point())
		ao, ai := a.Postcode()
		bo, bi := b.Postcode()
		assert.Equal(t, ao, bo)
		assert.Equal(t, ai, bi)
	}
}

func TestRNG_PointRange(t *testing.T) {
	rng := NewRNG(1)
	for range 1000 {
		p := rng.Point()
		assert.GreaterOrEqual(t, p.Lon, -180.0)
		assert.Less(t, p.Lon, 180.0)
		assert.GreaterOrEqual(t, p.Lat, -90.0)
		assert.Less(t, p.Lat, 90.0)
	}
}

func TestOracle_Match(t *testing.T) {
	o := NewOracle()
	o.Add([]string{"aa11", "0"}, 0)
	o.Add([]string{"aa11", "1"}, 1)
	o.Add([]string{"aa12", "0"}, 2)
	o.Add([]string{"b1"}, 3)

	assert.Equal(t, []model.PointID{0}, o.Match([]string{"aa11", "0"}, false))
	assert.Equal(t, []model.PointID{0, 1}, o.Match([]string{"aa11"}, false))
	assert.Equal(t, []model.PointID{0, 1, 2}, o.Match([]string{"aa1"}, true))
	assert.Empty(t, o.Match([]string{"aa1"}, false))
	assert.Equal(t, []model.PointID{3}, o.Match([]string{"b1"}, false))
	assert.Empty(t, o.Match(nil, false))
}
