package specgroup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		label, value string
		want         Group
	}{
		{"RGB Front Fan Port", "", Cooling},
		{"Fan Support", "3x120mm", Cooling},
		{"Ventiladores incluidos", "2", Cooling},
		{"Radiator Support", "360mm", Cooling},
		{"Soporta USB", "", InputOutput},
		{"Front Panel", "USB 3.0 x2", Cooling},
		{"I/O Panel", "USB 3.0 x2", InputOutput},
		{"Audio", "HD Audio", InputOutput},
		{"Port", "HDMI", InputOutput},
		{"Ports", "2x USB-C", InputOutput},
		{"Soporta", "ATX", Additional},
		{"Drive Bays", "2x 3.5\"", Storage},
		{"Almacenamiento", "2x SSD", Storage},
		{"Dimensions", "450 x 210 x 480", Structure},
		{"Tamaño", "Mid Tower", Structure},
		{"Side Panel", "Tempered glass", Structure},
		{"Color", "Black steel", Structure},
		{"Soporta Placa Madre", "ATX 305mm", Additional},
		{"GPU Length", "400mm", Additional},
		{"CPU Cooler Height", "165mm", Cooling},
		{"Warranty", "2 years", Additional},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.label, tt.value))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, Cooling, Classify("RGB Front Fan Port", "yes"))
	}
}

func TestRulesOrder(t *testing.T) {
	require.Len(t, Rules, 4)
	assert.Equal(t, []Group{Cooling, InputOutput, Storage, Structure},
		[]Group{Rules[0].Group, Rules[1].Group, Rules[2].Group, Rules[3].Group})
}

func TestIsCommercial(t *testing.T) {
	assert.True(t, IsCommercial("Price (FOB)"))
	assert.True(t, IsCommercial("PRECIO"))
	assert.True(t, IsCommercial("MOQ"))
	assert.True(t, IsCommercial("Min. Order"))
	assert.False(t, IsCommercial("Fan Support"))
}

func TestResolveExplicitWins(t *testing.T) {
	assert.Equal(t, Storage, Resolve(Storage, "Fan Support", "3x120mm"))
	assert.Equal(t, Cooling, Resolve("", "Fan Support", "3x120mm"))
	assert.Equal(t, Cooling, Resolve("bogus", "Fan Support", ""))
}

func TestParseGroup(t *testing.T) {
	g, err := ParseGroup("cooling")
	require.NoError(t, err)
	assert.Equal(t, Cooling, g)

	g, err = ParseGroup("io")
	require.NoError(t, err)
	assert.Equal(t, InputOutput, g)

	g, err = ParseGroup("")
	require.NoError(t, err)
	assert.Equal(t, Additional, g)

	_, err = ParseGroup("lighting")
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	specs := []Spec{
		{Label: "RGB", Value: "Yes"},
		{Label: " rgb ", Value: "yes"},
		{Label: "RGB", Value: "No"},
		{Label: "Fans", Value: "3"},
	}

	got := Dedupe(specs)
	require.Len(t, got, 3)
	assert.Equal(t, "RGB", got[0].Label)
	assert.Equal(t, "Yes", got[0].Value)
	assert.Equal(t, "No", got[1].Value)
	assert.Equal(t, "Fans", got[2].Label)
}

func TestGroupSpecs(t *testing.T) {
	specs := []Spec{
		{Label: "Fan Support", Value: "3x120mm"},
		{Label: "USB", Value: "2x USB 3.0", Group: Main},
		{Label: "Price", Value: "45"},
		{Label: "Material", Value: "Steel"},
		{Label: "material ", Value: "steel"},
		{Label: "Warranty", Value: "1 year"},
	}

	sections := GroupSpecs(specs)
	require.Len(t, sections, 4)

	assert.Equal(t, Main, sections[0].Group)
	assert.Equal(t, "USB", sections[0].Specs[0].Label)
	assert.Equal(t, Structure, sections[1].Group)
	require.Len(t, sections[1].Specs, 1)
	assert.Equal(t, Cooling, sections[2].Group)
	assert.Equal(t, Additional, sections[3].Group)
	assert.Equal(t, "Warranty", sections[3].Specs[0].Label)
}

func TestGroupSpecsUsesResolve(t *testing.T) {
	specs := []Spec{
		{Label: "Fan Support", Value: "3x120mm", Group: "bogus"},
		{Label: "MOQ", Value: "50", Group: Additional},
	}

	sections := GroupSpecs(specs)
	require.Len(t, sections, 2)

	assert.Equal(t, Resolve("bogus", "Fan Support", "3x120mm"), sections[0].Group)
	assert.Equal(t, "bogus", string(specs[0].Group))
	assert.Equal(t, Additional, sections[1].Group)
	assert.Equal(t, "MOQ", sections[1].Specs[0].Label)
}
