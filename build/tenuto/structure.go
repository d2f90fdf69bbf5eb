package tenuto

import (
	"strconv"
	"unicode"

	"github.com/subchen/go-xmldom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	slugLength      = 4
	defaultSlug     = "inst"
	defaultPartName = "Instrument"
	defaultTitle    = "Untitled"
)

// An Instrument is a part in the score. Only the Voice changes after the
// structure is scanned.
type Instrument struct {
	// PartID is the id attribute of the <score-part>, like "P1".
	PartID string

	// ID is the unique short name used in the output, like "viol".
	ID string

	// Name is the display name, from <part-name>.
	Name string

	Voice Voice
}

// A Field is one line of score metadata.
type Field struct {
	Key   string
	Value string
}

// A Structure contains the score metadata and the instrument table.
type Structure struct {
	Meta        []Field
	Instruments []*Instrument
	byPart      map[string]*Instrument
}

// Instrument returns the instrument for a part ID, or nil.
func (s *Structure) Instrument(partID string) *Instrument {
	return s.byPart[partID]
}

// Slug returns the base instrument ID for a display name: the first four
// letters and digits of the lowercased name, or "inst" if there are none.
func Slug(name string) string {
	var r []rune
	for _, c := range cases.Lower(language.Und).String(name) {
		if len(r) == slugLength {
			break
		}
		if unicode.IsLetter(c) || unicode.IsNumber(c) {
			r = append(r, c)
		}
	}
	if len(r) == 0 {
		return defaultSlug
	}
	return string(r)
}

func (s *Structure) hasID(id string) bool {
	for _, inst := range s.Instruments {
		if inst.ID == id {
			return true
		}
	}
	return false
}

// uniqueID returns the slug for a name, with a number appended if an
// earlier instrument already uses it.
func (s *Structure) uniqueID(name string) string {
	base := Slug(name)
	id := base
	for n := 1; s.hasID(id); n++ {
		id = base + strconv.Itoa(n)
	}
	return id
}

// Add adds an instrument to the table and assigns it an ID.
func (s *Structure) Add(partID, name string) *Instrument {
	if name == "" {
		name = defaultPartName
	}
	inst := &Instrument{
		PartID: partID,
		ID:     s.uniqueID(name),
		Name:   name,
	}
	s.Instruments = append(s.Instruments, inst)
	if s.byPart == nil {
		s.byPart = make(map[string]*Instrument)
	}
	s.byPart[partID] = inst
	return inst
}

// ScanStructure reads the metadata and part list of a score.
func ScanStructure(root *xmldom.Node) (*Structure, error) {
	if root.Name == "score-timewise" {
		return nil, ErrTimewise
	}
	var s Structure
	if title, ok := scoreTitle(root); ok {
		s.Meta = append(s.Meta, Field{"title", title})
	}
	if composer := scoreComposer(root); composer != "" {
		s.Meta = append(s.Meta, Field{"composer", composer})
	}
	for _, sp := range Children(Child(root, "part-list"), "score-part") {
		id, ok := Attr(sp, "id")
		if !ok {
			return nil, &MissingError{"score-part", "@id"}
		}
		name, _ := ChildText(sp, "part-name")
		s.Add(id, name)
	}
	return &s, nil
}

func scoreTitle(root *xmldom.Node) (string, bool) {
	if work := Child(root, "work"); work != nil && len(work.Children) != 0 {
		if t, _ := ChildText(work, "work-title"); t != "" {
			return t, true
		}
		return defaultTitle, true
	}
	if t, _ := ChildText(root, "movement-title"); t != "" {
		return t, true
	}
	return "", false
}

func scoreComposer(root *xmldom.Node) string {
	creators := Children(Child(root, "identification"), "creator")
	for _, c := range creators {
		if t, _ := Attr(c, "type"); t == "composer" && c.Text != "" {
			return c.Text
		}
	}
	if len(creators) != 0 {
		return creators[0].Text
	}
	return ""
}
