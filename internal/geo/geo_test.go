package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinite(t *testing.T) {
	tests := []struct {
		name string
		p    LngLat
		want bool
	}{
		{"amsterdam", LngLat{4.9041, 52.3676}, true},
		{"origin", LngLat{0, 0}, true},
		{"nan lng", LngLat{math.NaN(), 52}, false},
		{"inf lat", LngLat{4.9, math.Inf(1)}, false},
		{"neg inf lat", LngLat{4.9, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Finite(tt.p))
		})
	}
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite(nil))
	assert.True(t, AllFinite([]LngLat{{1, 2}, {3, 4}}))
	assert.False(t, AllFinite([]LngLat{{1, 2}, {math.NaN(), 4}}))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "4.9041,52.3676", Format(LngLat{4.9041, 52.3676}))
	assert.Equal(t, "-0.5,10", Format(LngLat{-0.5, 10}))
}
