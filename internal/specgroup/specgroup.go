// Package specgroup classifies free-text specification labels into display groups.
package specgroup

import (
	"fmt"
	"regexp"
	"strings"
)

// Group is one of the closed set of specification groups.
type Group string

const (
	Main        Group = "MAIN"
	Structure   Group = "STRUCTURE"
	Cooling     Group = "COOLING"
	InputOutput Group = "INPUT_OUTPUT"
	Storage     Group = "STORAGE"
	Additional  Group = "ADDITIONAL"
)

// Default is used whenever no group was chosen.
const Default = Additional

// All lists the groups in display order.
var All = []Group{Main, Structure, Cooling, InputOutput, Storage, Additional}

// Valid reports whether g is a member of the closed set.
func (g Group) Valid() bool {
	for _, known := range All {
		if g == known {
			return true
		}
	}
	return false
}

// Title is the heading shown above a group of specs.
func (g Group) Title() string {
	switch g {
	case Main:
		return "Main"
	case Structure:
		return "Structure"
	case Cooling:
		return "Cooling"
	case InputOutput:
		return "Input / Output"
	case Storage:
		return "Storage"
	default:
		return "Additional"
	}
}

// ParseGroup accepts a group name in any case. "IO" and "I/O" are aliases
// for INPUT_OUTPUT.
func ParseGroup(s string) (Group, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch name {
	case "IO", "I/O", "INPUT/OUTPUT":
		return InputOutput, nil
	case "":
		return Default, nil
	}
	g := Group(name)
	if !g.Valid() {
		return "", fmt.Errorf("unknown spec group: %q", s)
	}
	return g, nil
}

// Spec is a label/value pair with the group it is shown under.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Group Group  `json:"spec_group,omitempty"`
}

// Rule claims a spec for Group when Match returns true.
type Rule struct {
	Group Group
	Match func(label, value string) bool
}

var (
	coolingLabel   = regexp.MustCompile(`(?i)fan|cool|radiator|water|rgb|ventilad|trasero|frontal|arriba|top|rear|front`)
	ioLabel        = regexp.MustCompile(`(?i)usb|audio|jack`)
	portWord       = regexp.MustCompile(`(?i)\bports?\b`)
	usbValue       = regexp.MustCompile(`(?i)usb`)
	storageLabel   = regexp.MustCompile(`(?i)hdd|ssd|drive|bay|slot|storage|disco|almac[eé]n`)
	structureLabel = regexp.MustCompile(`(?i)structure|size|dimension|mm|material|panel|chassis|peso|weight|tamaño|gabinete|caja|ancho|alto|largo`)
	structureValue = regexp.MustCompile(`(?i)mm|steel|glass`)
	mainExclusion  = regexp.MustCompile(`(?i)placa|madre|motherboard|gpu|gr[aá]fica|cpu|cooler|vga`)
	commercial     = regexp.MustCompile(`(?i)precio|price|fob|\bfoc\b|cost|total|moq|min(imum)?\.? ?order|pedido m[ií]nimo`)
)

// Rules is evaluated top to bottom; the first match wins. Anything left
// unclaimed falls through to Additional.
var Rules = []Rule{
	{Group: Cooling, Match: func(label, _ string) bool {
		return coolingLabel.MatchString(label)
	}},
	{Group: InputOutput, Match: func(label, value string) bool {
		return ioLabel.MatchString(label) || portWord.MatchString(label) || usbValue.MatchString(value)
	}},
	{Group: Storage, Match: func(label, _ string) bool {
		return storageLabel.MatchString(label)
	}},
	{Group: Structure, Match: func(label, value string) bool {
		if mainExclusion.MatchString(label) {
			return false
		}
		return structureLabel.MatchString(label) || structureValue.MatchString(value)
	}},
}

// Classify infers the group for a label/value pair.
func Classify(label, value string) Group {
	for _, r := range Rules {
		if r.Match(label, value) {
			return r.Group
		}
	}
	return Additional
}

// IsCommercial reports whether a label carries price or minimum-order data.
// Those columns belong in the commercial fields, not in the spec sheet.
func IsCommercial(label string) bool {
	return commercial.MatchString(label)
}

// Resolve returns the explicit group when one was stored and falls back to
// inference otherwise.
func Resolve(explicit Group, label, value string) Group {
	if explicit.Valid() {
		return explicit
	}
	return Classify(label, value)
}

// Dedupe drops specs whose trimmed, case-folded label and value both match
// an earlier spec. Order is preserved.
func Dedupe(specs []Spec) []Spec {
	seen := make(map[string]bool, len(specs))
	out := make([]Spec, 0, len(specs))
	for _, s := range specs {
		key := dedupeKey(s.Label) + "\x00" + dedupeKey(s.Value)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func dedupeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Section is one group of specs ready for display.
type Section struct {
	Group Group
	Specs []Spec
}

// GroupSpecs buckets specs for display. Stored groups are respected; specs
// without one are classified, and commercial labels among those are dropped.
// Empty groups are omitted and sections follow All.
func GroupSpecs(specs []Spec) []Section {
	buckets := make(map[Group][]Spec)
	for _, s := range Dedupe(specs) {
		if !s.Group.Valid() && IsCommercial(s.Label) {
			continue
		}
		s.Group = Resolve(s.Group, s.Label, s.Value)
		buckets[s.Group] = append(buckets[s.Group], s)
	}

	var sections []Section
	for _, g := range All {
		if len(buckets[g]) > 0 {
			sections = append(sections, Section{Group: g, Specs: buckets[g]})
		}
	}
	return sections
}
