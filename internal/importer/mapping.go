// Package importer turns uploaded spreadsheets into catalog entries: column
// mapping, row normalization, preview validation and the commit itself.
package importer

import (
	"fmt"
	"strings"

	"github.com/esgaming/catalogops/internal/parser"
	"github.com/esgaming/catalogops/internal/sanitize"
	"github.com/esgaming/catalogops/internal/specgroup"
)

// RoleKind is the meaning assigned to one spreadsheet column.
type RoleKind string

const (
	RoleModel  RoleKind = "model"
	RoleSKU    RoleKind = "sku"
	RolePrice  RoleKind = "price"
	RoleImage  RoleKind = "image"
	RoleIgnore RoleKind = "ignore"
	RoleSpec   RoleKind = "spec"
)

// Role is a column role. Label and Group are only used by RoleSpec.
type Role struct {
	Kind  RoleKind
	Label string
	Group specgroup.Group
}

func (r Role) String() string {
	if r.Kind != RoleSpec {
		return string(r.Kind)
	}
	return fmt.Sprintf("spec(%s, %s)", r.Label, r.Group)
}

// Spec builds a specification role. An unknown group falls back to the default.
func Spec(label string, group specgroup.Group) Role {
	if !group.Valid() {
		group = specgroup.Default
	}
	return Role{Kind: RoleSpec, Label: label, Group: group}
}

// ParseRole reads the textual role form used on the command line:
// model, sku, price, image, ignore, spec, spec:GROUP or spec:GROUP:Label.
// header is used as the spec label when none is given.
func ParseRole(header, s string) (Role, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	kind := RoleKind(strings.ToLower(strings.TrimSpace(parts[0])))

	switch kind {
	case RoleModel, RoleSKU, RolePrice, RoleImage, RoleIgnore:
		if len(parts) > 1 {
			return Role{}, fmt.Errorf("role %q takes no arguments", kind)
		}
		return Role{Kind: kind}, nil
	case RoleSpec:
		group := specgroup.Default
		if len(parts) > 1 {
			g, err := specgroup.ParseGroup(parts[1])
			if err != nil {
				return Role{}, err
			}
			group = g
		}
		label := header
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			label = strings.TrimSpace(parts[2])
		}
		return Spec(label, group), nil
	default:
		return Role{}, fmt.Errorf("unknown role: %q", s)
	}
}

// Column pairs a header with its role.
type Column struct {
	Header string
	Role   Role
}

// Mapping assigns exactly one role to every header of a sheet, in header
// order. It is a value: Set returns a modified copy.
type Mapping struct {
	Columns []Column
}

// Role returns the role of header.
func (m Mapping) Role(header string) (Role, bool) {
	for _, c := range m.Columns {
		if c.Header == header {
			return c.Role, true
		}
	}
	return Role{}, false
}

// Set returns a copy of m with header reassigned to role.
func (m Mapping) Set(header string, role Role) (Mapping, error) {
	if role.Kind == RoleSpec && !role.Group.Valid() {
		role.Group = specgroup.Default
	}
	cols := make([]Column, len(m.Columns))
	copy(cols, m.Columns)
	for i := range cols {
		if cols[i].Header == header {
			cols[i].Role = role
			return Mapping{Columns: cols}, nil
		}
	}
	return m, fmt.Errorf("unknown column: %q", header)
}

// Count returns how many columns have the given role kind.
func (m Mapping) Count(kind RoleKind) int {
	n := 0
	for _, c := range m.Columns {
		if c.Role.Kind == kind {
			n++
		}
	}
	return n
}

// Validate reports the required roles that no column carries.
func (m Mapping) Validate() error {
	var missing []string
	if m.Count(RoleModel) == 0 {
		missing = append(missing, "Model")
	}
	if m.Count(RolePrice) == 0 {
		missing = append(missing, "Price")
	}
	if len(missing) > 0 {
		return &MappingError{Missing: missing}
	}
	return nil
}

// guessRules are tried in order against the lowercased header.
var guessRules = []struct {
	kind     RoleKind
	keywords []string
}{
	{RoleModel, []string{"model", "name", "title"}},
	{RolePrice, []string{"price", "cost", "fob"}},
	{RoleImage, []string{"image", "photo", "url"}},
}

// GuessMapping proposes a role for every header. Headers that look like
// nothing else become specs labelled with the header; their group is the
// classifier's suggestion for the header and its first sample value.
func GuessMapping(headers []string, samples []parser.RawRow) Mapping {
	cols := make([]Column, 0, len(headers))
	for _, h := range headers {
		cols = append(cols, Column{Header: h, Role: guessRole(h, samples)})
	}
	return Mapping{Columns: cols}
}

func guessRole(header string, samples []parser.RawRow) Role {
	lower := strings.ToLower(header)
	for _, rule := range guessRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Role{Kind: rule.kind}
			}
		}
	}

	var sample string
	for _, row := range samples {
		if v := sanitize.Text(row[header]); v != "" {
			sample = v
			break
		}
	}
	return Spec(header, specgroup.Classify(header, sample))
}
