package tenuto

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/subchen/go-xmldom"

	"moria.us/tenuto/build/musicxml"
)

func parseXML(t *testing.T, text string) *xmldom.Document {
	t.Helper()
	doc, err := musicxml.Parse(strings.NewReader(text))
	require.NoError(t, err)
	return doc
}

// measure parses a measure body and returns its children.
func measure(t *testing.T, body ...string) []*xmldom.Node {
	t.Helper()
	return parseXML(t, "<measure>"+strings.Join(body, "")+"</measure>").Root.Children
}

// pn returns a pitched note. Extra is inserted into the note element.
func pn(step string, octave, duration int, extra ...string) string {
	return fmt.Sprintf("<note>%s<pitch><step>%s</step><octave>%d</octave></pitch><duration>%d</duration></note>",
		strings.Join(extra, ""), step, octave, duration)
}

func altered(step, alter string, octave int) string {
	return fmt.Sprintf("<note><pitch><step>%s</step><alter>%s</alter><octave>%d</octave></pitch><duration>1</duration></note>",
		step, alter, octave)
}

func rest(duration int, extra ...string) string {
	return fmt.Sprintf("<note>%s<rest/><duration>%d</duration></note>", strings.Join(extra, ""), duration)
}

func dynamics(mark string) string {
	return "<direction><direction-type><dynamics><" + mark + "/></dynamics></direction-type></direction>"
}

const chord = "<chord/>"

func notations(inner string) string {
	return "<notations>" + inner + "</notations>"
}
