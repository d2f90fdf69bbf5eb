package tenuto

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrTimewise is returned for scores in timewise (measure-major) layout.
var ErrTimewise = errors.New("timewise scores are not supported")

// A MissingError indicates that a required element or attribute is absent.
// Attribute names start with "@".
type MissingError struct {
	Elem string
	Name string
}

func (e *MissingError) Error() string {
	if len(e.Name) != 0 && e.Name[0] == '@' {
		return fmt.Sprintf("<%s> is missing attribute %q", e.Elem, e.Name[1:])
	}
	return fmt.Sprintf("<%s> is missing <%s>", e.Elem, e.Name)
}

// An Error is an error in the music of a part.
type Error struct {
	Part    string
	Measure int
	Err     error
}

func (e *Error) Error() string {
	s := "part " + strconv.Quote(e.Part)
	if e.Measure != 0 {
		s += " measure " + strconv.Itoa(e.Measure)
	}
	return s + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
