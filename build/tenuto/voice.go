package tenuto

import (
	"strconv"
	"strings"

	"github.com/subchen/go-xmldom"
)

// Rest is the token for a note without a pitch.
const Rest = "r"

// A Voice tracks what was last written for one instrument, so that unchanged
// octaves and durations can be left out. The zero value has nothing written,
// which forces the first event to carry both. A Voice is never reset, state
// carries across barlines.
type Voice struct {
	LastDuration Duration
	LastOctave   string
}

var accidentals = map[float64]string{
	-2: "bb",
	-1: "b",
	0:  "",
	1:  "#",
	2:  "x",
}

func accidental(pitch *xmldom.Node) string {
	text, ok := ChildText(pitch, "alter")
	if !ok {
		return ""
	}
	alter, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return ""
	}
	return accidentals[alter]
}

// Pitch returns the pitch token for a <note> element. Notes without a
// <pitch> are rests. The octave is only written if it differs from the last
// octave written in this voice.
func (v *Voice) Pitch(note *xmldom.Node) (string, error) {
	pitch := Child(note, "pitch")
	if pitch == nil {
		return Rest, nil
	}
	step, _ := ChildText(pitch, "step")
	if step == "" {
		return "", &MissingError{"pitch", "step"}
	}
	octave, _ := ChildText(pitch, "octave")
	if octave == "" {
		return "", &MissingError{"pitch", "octave"}
	}
	tok := strings.ToLower(step) + accidental(pitch)
	if octave != v.LastOctave {
		tok += octave
		v.LastOctave = octave
	}
	return tok, nil
}

// duration returns the suffix for an event of the given duration, which is
// empty if it matches the last duration written.
func (v *Voice) duration(d Duration) string {
	if d == v.LastDuration {
		return ""
	}
	v.LastDuration = d
	return string(d)
}
