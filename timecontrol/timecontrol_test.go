package timecontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	type testcase struct {
		tc        string
		nps       float64
		scaledTC  string
		limit     float64
	}
	for _, tc := range []testcase{
		// Reference-speed machine: no scaling.
		{"10+0.1", 1600000, "10.000+0.100", 10*3 + 0.1*200},
		// Half-speed machine doubles everything.
		{"10+0.1", 800000, "20.000+0.200", 20*3 + 0.2*200},
		// Plain time, no increment.
		{"60", 1600000, "60.000", 180},
		// Moves prefix is retained and scales the limit.
		{"40/60", 1600000, "40/60.000", 60 * 3 * 100 / 40.0},
		// mm:ss clock form.
		{"1:30+1", 1600000, "90.000+1.000", 90*3 + 1*200},
	} {
		scaled, err := Adjust(tc.tc, tc.nps)
		require.NoError(t, err, tc.tc)
		assert.Equal(t, tc.scaledTC, scaled.TC, tc.tc)
		assert.InDelta(t, tc.limit, scaled.LimitSeconds, 1e-9, tc.tc)
	}
}

func TestAdjustTooSlow(t *testing.T) {
	scaled, err := Adjust("10+0.1", 650000)
	assert.Nil(t, scaled)
	assert.ErrorIs(t, err, ErrMachineTooSlow)
}

func TestAdjustMalformed(t *testing.T) {
	for _, tc := range []string{"", "abc", "10+x", "x/10", "1:xx"} {
		_, err := Adjust(tc, 1600000)
		assert.Error(t, err, tc)
	}
}
