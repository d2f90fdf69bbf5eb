// Package musicxml loads MusicXML scores into a generic element tree.
//
// Both plain .xml documents and compressed .mxl archives are accepted. The
// tree keeps every element with its namespace, attributes, children in
// document order, and trimmed text content.
package musicxml

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/subchen/go-xmldom"
	"golang.org/x/net/html/charset"
)

const containerFile = "META-INF/container.xml"

// A ContainerError indicates a compressed score that has no score document
// inside it.
type ContainerError struct {
	Path string
	Msg  string
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("invalid .mxl file %s: %s", e.Path, e.Msg)
}

// IsCompressed returns true if the file name refers to a compressed score.
func IsCompressed(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".mxl")
}

// Load reads the score at the given path.
func Load(name string) (*xmldom.Document, error) {
	if IsCompressed(name) {
		return loadCompressed(name)
	}
	fp, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	doc, err := Parse(fp)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return doc, nil
}

func loadCompressed(name string) (*xmldom.Document, error) {
	z, err := zip.OpenReader(name)
	if err != nil {
		return nil, &ContainerError{name, err.Error()}
	}
	defer z.Close()
	return ReadCompressed(&z.Reader, name)
}

// ReadCompressed reads the score document out of an opened .mxl archive. The
// name is only used for error messages.
func ReadCompressed(z *zip.Reader, name string) (*xmldom.Document, error) {
	f := rootFile(z)
	if f == nil {
		return nil, &ContainerError{name, "no root XML found"}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, &ContainerError{name, err.Error()}
	}
	defer rc.Close()
	doc, err := Parse(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: %s", name, f.Name)
	}
	return doc, nil
}

// rootFile finds the score document in an archive. The container manifest is
// consulted first; exporters which omit it get the first XML file outside of
// META-INF.
func rootFile(z *zip.Reader) *zip.File {
	files := make(map[string]*zip.File, len(z.File))
	for _, f := range z.File {
		files[f.Name] = f
	}
	if f := files[containerFile]; f != nil {
		if p := manifestPath(f); p != "" {
			if rf := files[p]; rf != nil {
				return rf
			}
		}
	}
	for _, f := range z.File {
		if strings.HasSuffix(f.Name, ".xml") && !strings.HasPrefix(f.Name, "META-INF") {
			return f
		}
	}
	return nil
}

func manifestPath(f *zip.File) string {
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	doc, err := Parse(rc)
	if err != nil {
		return ""
	}
	for _, rfs := range doc.Root.GetChildren("rootfiles") {
		for _, rf := range rfs.GetChildren("rootfile") {
			if p := rf.GetAttributeValue("full-path"); p != "" {
				return p
			}
		}
	}
	return ""
}

// Parse parses an XML document into a tree. Element and attribute names are
// reduced to their local names and namespace declarations are dropped, so
// prefixed and unprefixed scores give the same tree. Documents declaring a
// legacy encoding such as ISO-8859-1 are transcoded to UTF-8.
func Parse(r io.Reader) (*xmldom.Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	doc := new(xmldom.Document)
	var cur *xmldom.Node
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmldom.Node{
				Document: doc,
				Parent:   cur,
				Name:     t.Name.Local,
			}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				n.Attributes = append(n.Attributes, &xmldom.Attribute{Name: a.Name.Local, Value: a.Value})
			}
			if cur == nil {
				if doc.Root != nil {
					return nil, errors.New("multiple root elements")
				}
				doc.Root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
		case xml.EndElement:
			cur.Text = strings.TrimSpace(cur.Text)
			cur = cur.Parent
		case xml.CharData:
			if cur != nil {
				cur.Text += string(t)
			}
		}
	}
	if doc.Root == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}
