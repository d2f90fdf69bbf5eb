package tenuto

import (
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

// A Duration is a Tenuto duration suffix, such as ":4" or ":8.".
type Duration string

// Duration symbols. The number is the reciprocal of the note value, and a
// trailing dot marks a dotted value.
const (
	Whole           Duration = ":1"
	DottedHalf      Duration = ":2."
	Half            Duration = ":2"
	DottedQuarter   Duration = ":4."
	Quarter         Duration = ":4"
	DottedEighth    Duration = ":8."
	Eighth          Duration = ":8"
	DottedSixteenth Duration = ":16."
	Sixteenth       Duration = ":16"
	ThirtySecond    Duration = ":32"
)

// Lengths are in quarter notes. Lookup is by exact floating-point equality,
// so tuplet fractions like 1/3 never match and fall back to Quarter.
var durations = [...]struct {
	quarters float64
	symbol   Duration
}{
	{4, Whole},
	{3, DottedHalf},
	{2, Half},
	{1.5, DottedQuarter},
	{1, Quarter},
	{0.75, DottedEighth},
	{0.5, Eighth},
	{0.375, DottedSixteenth},
	{0.25, Sixteenth},
	{0.125, ThirtySecond},
}

func quantize(ticks float64, divisions int) (Duration, bool) {
	if divisions == 0 {
		return Quarter, false
	}
	q := ticks / float64(divisions)
	for _, d := range durations {
		if q == d.quarters {
			return d.symbol, true
		}
	}
	return Quarter, false
}

// Quantize converts a length in ticks to a duration symbol, given the number
// of ticks per quarter note. Lengths without a symbol, and a zero division,
// give Quarter.
func Quantize(ticks float64, divisions int) Duration {
	d, _ := quantize(ticks, divisions)
	return d
}

// QuantizeText is like Quantize, but takes the text of a <duration> element.
// Empty text means the duration is absent, which gives Quarter.
func QuantizeText(text string, divisions int) (Duration, error) {
	if text == "" {
		return Quarter, nil
	}
	ticks, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return "", fmt.Errorf("invalid duration %q", text)
	}
	d, ok := quantize(ticks, divisions)
	if !ok {
		logrus.Debugf("no duration symbol for %s ticks at %d divisions, using %s", text, divisions, d)
	}
	return d, nil
}
