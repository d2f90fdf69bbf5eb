// Package tenuto converts MusicXML scores to the Tenuto language.
//
// MusicXML is organized by part, then measure. Tenuto is organized by
// measure, then part, so the conversion collects events in a Pivot before
// writing anything. Each instrument has a Voice that remembers the last
// octave and duration written, and events leave out whatever has not
// changed.
package tenuto

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/subchen/go-xmldom"
)

// Options control how a score is written.
type Options struct {
	// Style is the style attribute of each instrument definition. Empty
	// means DefaultStyle.
	Style string
}

// A Converter holds the state of one conversion.
//
// Conversion happens in three phases, which must run in order: ScanStructure,
// ParseLogic, and Render.
type Converter struct {
	root      *xmldom.Node
	opts      Options
	structure *Structure
	pivot     Pivot

	// divisions is ticks per quarter note. It is shared by all parts, and
	// any <divisions> change applies to every measure processed afterwards,
	// in part order then measure order.
	divisions int
}

// New creates a converter for a parsed document.
func New(doc *xmldom.Document, opts Options) *Converter {
	return &Converter{
		root:      doc.Root,
		opts:      opts,
		divisions: 1,
	}
}

// Structure returns the instrument table, or nil before ScanStructure.
func (c *Converter) Structure() *Structure {
	return c.structure
}

// Pivot returns the collected events.
func (c *Converter) Pivot() *Pivot {
	return &c.pivot
}

// Divisions returns the current number of ticks per quarter note.
func (c *Converter) Divisions() int {
	return c.divisions
}

// ScanStructure reads the score metadata and part list.
func (c *Converter) ScanStructure() error {
	s, err := ScanStructure(c.root)
	if err != nil {
		return err
	}
	c.structure = s
	return nil
}

// ParseLogic converts the music in each part and stores it in the pivot.
// Measures are numbered from 1 in the order they appear in each part.
func (c *Converter) ParseLogic() error {
	if c.structure == nil {
		return errors.New("score structure has not been scanned")
	}
	for _, part := range Children(c.root, "part") {
		pid, ok := Attr(part, "id")
		if !ok {
			return &MissingError{"part", "@id"}
		}
		inst := c.structure.Instrument(pid)
		if inst == nil {
			logrus.Warnf("part %q is not in the part list, skipping", pid)
			continue
		}
		for i, m := range Children(part, "measure") {
			n := i + 1
			meta, err := c.attributes(m)
			if err != nil {
				return &Error{pid, n, err}
			}
			if len(meta) != 0 {
				c.pivot.StoreMeta(n, meta)
			}
			tokens, err := GroupMeasure(m.Children, &inst.Voice, c.divisions)
			if err != nil {
				return &Error{pid, n, err}
			}
			c.pivot.Store(n, inst.ID, tokens)
		}
	}
	return nil
}

// attributes applies the first <attributes> block of a measure and returns
// the measure-level changes it contains.
func (c *Converter) attributes(m *xmldom.Node) ([]string, error) {
	attrs := Child(m, "attributes")
	if attrs == nil {
		return nil, nil
	}
	if text, _ := ChildText(attrs, "divisions"); text != "" {
		d, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid divisions %q", text)
		}
		c.divisions = d
	}
	var meta []string
	if t := Child(attrs, "time"); t != nil {
		beats, _ := ChildText(t, "beats")
		beatType, _ := ChildText(t, "beat-type")
		if beats != "" || beatType != "" {
			meta = append(meta, "time: "+beats+"/"+beatType)
		}
	}
	return meta, nil
}

// Render returns the Tenuto document.
func (c *Converter) Render() string {
	s := c.structure
	if s == nil {
		s = new(Structure)
	}
	return Render(s, &c.pivot, c.opts.Style)
}

// Convert runs a complete conversion.
func Convert(doc *xmldom.Document, opts Options) (string, error) {
	c := New(doc, opts)
	if err := c.ScanStructure(); err != nil {
		return "", err
	}
	if err := c.ParseLogic(); err != nil {
		return "", err
	}
	return c.Render(), nil
}
