package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat(t *testing.T) {
	tests := []struct {
		name string
		f    float64
		opts FloatOptions
		want string
	}{
		{"defaults", 10, FloatOptions{}, "10.000000"},
		{"zero", 0, FloatOptions{}, "0.000000"},
		{"small fits", 0.001, FloatOptions{E0: "{f:.0E}"}, "0.001"},
		{"too small", 1e-5, FloatOptions{E0: "{f:.0E}"}, "1E-05"},
		{"too large", 123456, FloatOptions{E0: "{f:.0E}"}, "1E+05"},
		{"large fits", 10, FloatOptions{E0: "{f:.0E}"}, "10.00"},
		{"negative", -12.5, FloatOptions{E0: "{f:.0E}"}, "-12.50"},
		{"exp result", 123456, FloatOptions{E0: "{f:.0E}", E1: "{f:.2e}"}, "1.23e+05"},
		{"fixed result", 2.5, FloatOptions{E0: "{f:.1e}", F1: "{f:.1f}"}, "2.5"},
		{"padded", 2.5, FloatOptions{E0: "{f:.1e}", F1: "{f:6.2f}"}, "  2.50"},
		{"inf", math.Inf(1), FloatOptions{}, "inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Float(tt.f, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloatInvalidFormat(t *testing.T) {
	for _, s := range []string{"{f:,e}", "{f:d}", "%e", "{x:e}", "{f:.2g}"} {
		_, err := Float(1, FloatOptions{E0: s})
		assert.ErrorIs(t, err, ErrInvalidFormat, s)
	}
	_, err := Float(1, FloatOptions{F1: "f"})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
