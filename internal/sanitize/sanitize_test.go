package sanitize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty", "", ""},
		{"trims ends", "  Case X  ", "Case X"},
		{"collapses runs", "Mid\t\tTower \n  ATX", "Mid Tower ATX"},
		{"non-breaking space", "Case\u00a0 X", "Case X"},
		{"number cell", 45.5, "45.5"},
		{"integer cell", 120, "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestTextIdempotent(t *testing.T) {
	inputs := []string{"", " a ", "a  b\tc", "\n\nx\n", "already clean"}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}

func TestNumericField(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"nil", nil, 0},
		{"empty", "", 0},
		{"no digits", "N/A", 0},
		{"currency wrapped", "$45.00 USD", 45},
		{"thousands comma", "1,234.56", 1234.56},
		{"comma decimal stays naive", "1.234,56", 1.23456},
		{"second dot ends the number", "1.2.3", 1.2},
		{"leading dot", ".5", 0.5},
		{"only dots", "..", 0},
		{"minus is stripped", "-12", 12},
		{"number cell", 99.9, 99.9},
		{"negative number cell", -5.0, 5},
		{"NaN", math.NaN(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NumericField(tt.in)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	assert.Equal(t, "350", NormalizeUnit("350mm"))
	assert.Equal(t, "2.5", NormalizeUnit("2.5 kg"))
	assert.Equal(t, "3", NormalizeUnit("3x120mm"))
	assert.Equal(t, "", NormalizeUnit("none"))
	assert.Equal(t, "", NormalizeUnit(nil))
	assert.Equal(t, "165", NormalizeUnit(165))
}

func TestRequiredField(t *testing.T) {
	assert.True(t, RequiredField("x"))
	assert.False(t, RequiredField("   "))
	assert.False(t, RequiredField(nil))
}
