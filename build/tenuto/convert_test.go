package tenuto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airXML = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
<score-partwise version="3.1">
  <work><work-title>Air &quot;on G&quot;</work-title></work>
  <identification><creator type="composer">J. S. Bach</creator></identification>
  <part-list>
    <score-part id="P1"><part-name>Violin I</part-name></score-part>
    <score-part id="P2"><part-name>Violin I</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes>
        <divisions>1</divisions>
        <key><fifths>0</fifths></key>
        <time><beats>4</beats><beat-type>4</beat-type></time>
      </attributes>
      <direction placement="below"><direction-type><dynamics><p/></dynamics></direction-type></direction>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration><voice>1</voice><type>quarter</type></note>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration><voice>1</voice><type>quarter</type></note>
      <note><pitch><step>D</step><octave>5</octave></pitch><duration>2</duration><voice>1</voice><type>half</type></note>
    </measure>
    <measure number="2">
      <note><rest measure="yes"/><duration>4</duration><voice>1</voice></note>
      <barline location="right"><bar-style>light-heavy</bar-style></barline>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <note>
        <pitch><step>C</step><octave>3</octave></pitch><duration>4</duration>
        <notations><articulations><staccato/></articulations></notations>
      </note>
      <note><chord/><pitch><step>E</step><octave>3</octave></pitch><duration>4</duration></note>
      <note><chord/><pitch><step>G</step><octave>3</octave></pitch><duration>4</duration></note>
    </measure>
    <measure number="2">
      <note>
        <pitch><step>C</step><octave>3</octave></pitch><duration>2</duration>
        <notations><slur type="start" number="1"/></notations>
      </note>
      <note>
        <pitch><step>D</step><octave>3</octave></pitch><duration>2</duration>
        <notations><slur type="stop" number="1"/></notations>
      </note>
    </measure>
  </part>
</score-partwise>
`

var airTenuto = strings.Join([]string{
	`tenuto {`,
	`  meta {`,
	`    tenuto_version: "2.0",`,
	`    title: "Air \"on G\"",`,
	`    composer: "J. S. Bach",`,
	`  }`,
	``,
	`  %% Instrument Definitions`,
	`  def viol "Violin I" style=standard`,
	`  def viol1 "Violin I" style=standard`,
	``,
	`  %% Score Logic`,
	`  measure 1 {`,
	`    meta { time: 4/4 }`,
	`    viol: c4:4.p c d5:2 |`,
	`    viol1: [c3 e g]:1.stacc |`,
	`  }`,
	``,
	`  measure 2 {`,
	`    viol: r:1 |`,
	`    viol1: c:2.legato d |`,
	`  }`,
	``,
	`}`,
}, "\n")

func TestConvert(t *testing.T) {
	out, err := Convert(parseXML(t, airXML), Options{})
	require.NoError(t, err)
	assert.Equal(t, airTenuto, out)
}

func TestConvertStyle(t *testing.T) {
	out, err := Convert(parseXML(t, airXML), Options{Style: "baroque"})
	require.NoError(t, err)
	assert.Contains(t, out, `def viol1 "Violin I" style=baroque`)
}

func TestConverterPhases(t *testing.T) {
	c := New(parseXML(t, airXML), Options{})
	assert := assert.New(t)
	assert.Nil(c.Structure())
	assert.Error(c.ParseLogic())

	require.NoError(t, c.ScanStructure())
	require.NoError(t, c.ParseLogic())
	assert.Equal([]int{1, 2}, c.Pivot().Measures())
	assert.Equal(Voice{LastDuration: Half, LastOctave: "3"}, c.Structure().Instrument("P2").Voice)
	assert.Equal(1, c.Divisions())
	assert.Equal(airTenuto, c.Render())
}

func TestConverterRenderBeforeScan(t *testing.T) {
	c := New(parseXML(t, airXML), Options{})
	assert.Equal(t, strings.Join([]string{
		`tenuto {`,
		`  meta {`,
		`    tenuto_version: "2.0",`,
		`  }`,
		``,
		`  %% Instrument Definitions`,
		``,
		`  %% Score Logic`,
		`}`,
	}, "\n"), c.Render())
}

func score(parts ...string) string {
	return `<score-partwise><part-list>
<score-part id="P1"><part-name>Flute</part-name></score-part>
<score-part id="P2"><part-name>Oboe</part-name></score-part>
</part-list>` + strings.Join(parts, "") + `</score-partwise>`
}

func convertScore(t *testing.T, parts ...string) (*Converter, error) {
	t.Helper()
	c := New(parseXML(t, score(parts...)), Options{})
	require.NoError(t, c.ScanStructure())
	return c, c.ParseLogic()
}

func TestConvertGlobalDivisions(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P1"><measure><attributes><divisions>2</divisions></attributes>`+pn("C", 4, 2)+`</measure></part>`,
		`<part id="P2"><measure>`+pn("C", 4, 2)+`</measure></part>`)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Divisions())
	m := c.Pivot().Measure(1)
	assert.Equal(t, []string{"c4:4"}, m.Voices["flut"])
	assert.Equal(t, []string{"c4:4"}, m.Voices["oboe"])
}

func TestConvertDivisionsChangeMidPart(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P1">`+
			`<measure><attributes><divisions>1</divisions></attributes>`+pn("C", 4, 1)+`</measure>`+
			`<measure><attributes><divisions>4</divisions></attributes>`+pn("C", 4, 4)+`</measure>`+
			`<measure><attributes><divisions>8</divisions></attributes>`+pn("C", 4, 4)+`</measure>`+
			`</part>`)
	require.NoError(t, err)
	p := c.Pivot()
	assert.Equal(t, []string{"c4:4"}, p.Measure(1).Voices["flut"])
	assert.Equal(t, []string{"c"}, p.Measure(2).Voices["flut"])
	assert.Equal(t, []string{"c:8"}, p.Measure(3).Voices["flut"])
}

func TestConvertFirstAttributesOnly(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P1"><measure>`+
			`<attributes><time><beats>3</beats><beat-type>4</beat-type></time></attributes>`+
			pn("C", 4, 1)+
			`<attributes><divisions>4</divisions><time><beats>2</beats><beat-type>4</beat-type></time></attributes>`+
			pn("D", 4, 1)+
			`</measure></part>`)
	require.NoError(t, err)
	m := c.Pivot().Measure(1)
	assert.Equal(t, []string{"time: 3/4"}, m.Meta)
	assert.Equal(t, []string{"c4:4", "d"}, m.Voices["flut"])
}

func TestConvertMetaLastWriteWins(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P1"><measure><attributes><time><beats>4</beats><beat-type>4</beat-type></time></attributes></measure></part>`,
		`<part id="P2"><measure><attributes><time><beats>3</beats><beat-type>4</beat-type></time></attributes></measure></part>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"time: 3/4"}, c.Pivot().Measure(1).Meta)
}

func TestConvertMetaKeptWithoutAttributes(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P1"><measure><attributes><time><beats>6</beats><beat-type>8</beat-type></time></attributes></measure></part>`,
		`<part id="P2"><measure><attributes><divisions>2</divisions></attributes></measure></part>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"time: 6/8"}, c.Pivot().Measure(1).Meta)
}

func TestConvertEmptyMeasure(t *testing.T) {
	c, err := convertScore(t, `<part id="P1"><measure number="1"/></part>`)
	require.NoError(t, err)
	assert.Contains(t, c.Render(), "\n  measure 1 {\n  }\n")
}

func TestConvertSkipsUnknownPart(t *testing.T) {
	c, err := convertScore(t,
		`<part id="P9"><measure>`+pn("C", 4, 1)+`</measure></part>`,
		`<part id="P2"><measure>`+pn("E", 5, 1)+`</measure></part>`)
	require.NoError(t, err)
	m := c.Pivot().Measure(1)
	assert.Equal(t, map[string][]string{"oboe": {"e5:4"}}, m.Voices)
}

func TestConvertErrors(t *testing.T) {
	_, err := convertScore(t,
		`<part id="P1"><measure>`+pn("C", 4, 1)+`</measure><measure><note><pitch><step>D</step></pitch></note></measure></part>`)
	var pe *Error
	require.True(t, errors.As(err, &pe), "err = %v", err)
	assert.Equal(t, "P1", pe.Part)
	assert.Equal(t, 2, pe.Measure)
	var me *MissingError
	assert.True(t, errors.As(err, &me))
	assert.Equal(t, `part "P1" measure 2: <pitch> is missing <octave>`, err.Error())

	_, err = convertScore(t, `<part id="P2"><measure><attributes><divisions>many</divisions></attributes></measure></part>`)
	require.True(t, errors.As(err, &pe), "err = %v", err)
	assert.Equal(t, `part "P2" measure 1: invalid divisions "many"`, err.Error())

	_, err = convertScore(t, `<part><measure/></part>`)
	assert.True(t, errors.As(err, &me), "err = %v", err)

	_, err = Convert(parseXML(t, "<score-timewise/>"), Options{})
	assert.True(t, errors.Is(err, ErrTimewise))
}

func TestConvertPrefixedScore(t *testing.T) {
	doc := parseXML(t, `<?xml version="1.0"?>
<mx:score-partwise xmlns:mx="http://www.musicxml.org/ns">
  <mx:part-list><mx:score-part mx:id="P1"><mx:part-name>Cello</mx:part-name></mx:score-part></mx:part-list>
  <mx:part id="P1">
    <mx:measure>
      <mx:attributes><mx:divisions>2</mx:divisions></mx:attributes>
      <mx:note><mx:pitch><mx:step>C</mx:step><mx:octave>3</mx:octave></mx:pitch><mx:duration>3</mx:duration></mx:note>
      <mx:note><mx:pitch><mx:step>E</mx:step><mx:alter>-1</mx:alter><mx:octave>3</mx:octave></mx:pitch><mx:duration>1</mx:duration></mx:note>
    </mx:measure>
  </mx:part>
</mx:score-partwise>`)
	out, err := Convert(doc, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "\n  def cell \"Cello\" style=standard\n")
	assert.Contains(t, out, "\n    cell: c3:4. eb:8 |\n")
}
