package tenuto

import (
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/subchen/go-xmldom"
)

// Articulation suffixes, in the order they are written.
var articulations = [...]struct {
	elem   string
	suffix string
}{
	{"staccato", ".stacc"},
	{"accent", ".acc"},
	{"tenuto", ".ten"},
}

const legatoSuffix = ".legato"

func isChordMember(n *xmldom.Node) bool {
	return n.Name == "note" && Child(n, "chord") != nil
}

// GroupMeasure converts the children of one <measure> into event tokens for
// a single voice.
//
// Notes followed by notes marked <chord/> become one bracketed chord token,
// which takes its duration and notations from the first note. Dynamics in a
// <direction> attach to the next note. A dynamics mark is named by its
// element, so <ff/> gives ".ff", except <other-dynamics>, which is named by
// its lowercased letters and digits. Everything else in the measure is
// skipped. The divisions value is the number of ticks per quarter note in
// effect for this measure.
func GroupMeasure(elems []*xmldom.Node, v *Voice, divisions int) ([]string, error) {
	tokens := []string{}
	var pending []string
	for i := 0; i < len(elems); {
		e := elems[i]
		switch e.Name {
		case "direction":
			if d := dynamicsMark(e); d != "" {
				pending = append(pending, d)
			}
			i++
		case "note":
			j := i + 1
			for j < len(elems) && isChordMember(elems[j]) {
				j++
			}
			tok, err := v.event(elems[i:j], divisions)
			if err != nil {
				return nil, err
			}
			for _, d := range pending {
				tok += "." + d
			}
			pending = pending[:0]
			tok += notationSuffix(e)
			tokens = append(tokens, tok)
			i = j
		default:
			i++
		}
	}
	if len(pending) != 0 {
		logrus.Warnf("dynamics %s not followed by a note, dropped", strings.Join(pending, ", "))
	}
	return tokens, nil
}

// event renders the pitch and duration of a note and its chord members.
func (v *Voice) event(cluster []*xmldom.Node, divisions int) (string, error) {
	text, _ := ChildText(cluster[0], "duration")
	d, err := QuantizeText(text, divisions)
	if err != nil {
		return "", err
	}
	var tok string
	if len(cluster) == 1 {
		tok, err = v.Pitch(cluster[0])
		if err != nil {
			return "", err
		}
	} else {
		pitches := make([]string, 0, len(cluster))
		for _, n := range cluster {
			p, err := v.Pitch(n)
			if err != nil {
				return "", err
			}
			if p != Rest {
				pitches = append(pitches, p)
			}
		}
		tok = "[" + strings.Join(pitches, " ") + "]"
	}
	return tok + v.duration(d), nil
}

// dynamicsMark returns the dynamics suffix name in a <direction>, or "" if
// it has none. The name is the first element inside <dynamics>, so <ff/>
// gives "ff".
func dynamicsMark(dir *xmldom.Node) string {
	for _, dt := range Children(dir, "direction-type") {
		dyn := Child(dt, "dynamics")
		if dyn == nil || len(dyn.Children) == 0 {
			continue
		}
		m := dyn.Children[0]
		if m.Name == "other-dynamics" {
			if name := markName(m.Text); name != "" {
				return name
			}
		}
		return strings.ToLower(m.Name)
	}
	return ""
}

// markName reduces free text to something usable as a suffix.
func markName(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, text)
}

// notationSuffix returns the articulation and slur suffixes of a note.
func notationSuffix(note *xmldom.Node) string {
	nots := Children(note, "notations")
	if len(nots) == 0 {
		return ""
	}
	var b strings.Builder
	for _, a := range articulations {
		for _, n := range nots {
			if Child(Child(n, "articulations"), a.elem) != nil {
				b.WriteString(a.suffix)
				break
			}
		}
	}
	for _, n := range nots {
		if slurStarts(n) {
			b.WriteString(legatoSuffix)
			break
		}
	}
	return b.String()
}

func slurStarts(notations *xmldom.Node) bool {
	for _, s := range Children(notations, "slur") {
		if t, _ := Attr(s, "type"); t == "start" {
			return true
		}
	}
	return false
}
