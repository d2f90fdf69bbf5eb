package tenuto

import "sort"

// A Measure holds everything recorded for one measure across all parts.
//
// Measure-level changes are kept apart from the voices, so no instrument ID
// can ever be mistaken for them.
type Measure struct {
	// Meta contains changes such as "time: 3/4", in order.
	Meta []string

	// Voices maps instrument IDs to event tokens.
	Voices map[string][]string
}

// A Pivot holds the music by measure, then by instrument. Measures are
// created the first time anything is stored in them. The zero value is an
// empty pivot ready to use.
type Pivot struct {
	measures map[int]*Measure
}

func (p *Pivot) measure(n int) *Measure {
	if p.measures == nil {
		p.measures = make(map[int]*Measure)
	}
	m := p.measures[n]
	if m == nil {
		m = &Measure{Voices: make(map[string][]string)}
		p.measures[n] = m
	}
	return m
}

// Store sets the tokens for an instrument in a measure, replacing any tokens
// previously stored there. An empty token list still creates the measure.
func (p *Pivot) Store(n int, id string, tokens []string) {
	p.measure(n).Voices[id] = tokens
}

// StoreMeta sets the measure-level changes for a measure, replacing any
// previously stored.
func (p *Pivot) StoreMeta(n int, changes []string) {
	p.measure(n).Meta = changes
}

// Measure returns the given measure, or nil if nothing was stored in it.
func (p *Pivot) Measure(n int) *Measure {
	return p.measures[n]
}

// Measures returns the numbers of all measures, in ascending order.
func (p *Pivot) Measures() []int {
	ns := make([]int, 0, len(p.measures))
	for n := range p.measures {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	return ns
}

// Len returns the number of measures.
func (p *Pivot) Len() int {
	return len(p.measures)
}
