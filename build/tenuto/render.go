package tenuto

import (
	"strconv"
	"strings"
)

const (
	// FormatVersion is the Tenuto language version written in the header.
	FormatVersion = "2.0"

	// DefaultStyle is the style attribute given to instruments.
	DefaultStyle = "standard"
)

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Render writes a complete Tenuto document.
//
// Measures are written in ascending order. Within a measure, instruments
// appear in part-list order, and instruments with no events are left out.
func Render(s *Structure, p *Pivot, style string) string {
	if style == "" {
		style = DefaultStyle
	}
	lines := []string{
		"tenuto {",
		"  meta {",
		"    tenuto_version: " + quote(FormatVersion) + ",",
	}
	for _, f := range s.Meta {
		lines = append(lines, "    "+f.Key+": "+quote(f.Value)+",")
	}
	lines = append(lines, "  }", "", "  %% Instrument Definitions")
	for _, inst := range s.Instruments {
		lines = append(lines, "  def "+inst.ID+" "+quote(inst.Name)+" style="+style)
	}
	lines = append(lines, "", "  %% Score Logic")
	for _, n := range p.Measures() {
		m := p.Measure(n)
		lines = append(lines, "  measure "+strconv.Itoa(n)+" {")
		if len(m.Meta) != 0 {
			lines = append(lines, "    meta { "+strings.Join(m.Meta, ", ")+" }")
		}
		for _, inst := range s.Instruments {
			if evs := m.Voices[inst.ID]; len(evs) != 0 {
				lines = append(lines, "    "+inst.ID+": "+strings.Join(evs, " ")+" |")
			}
		}
		lines = append(lines, "  }", "")
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}
