package tenuto

import "github.com/subchen/go-xmldom"

// Element and attribute names in the tree are local names; any namespace
// prefix is dropped when the document is parsed.

// Child returns the first child element of n with the given name. Returns
// nil if there is no such child or n is nil.
func Child(n *xmldom.Node, name string) *xmldom.Node {
	if n == nil {
		return nil
	}
	return n.GetChild(name)
}

// Children returns all child elements of n with the given name.
func Children(n *xmldom.Node, name string) []*xmldom.Node {
	if n == nil {
		return nil
	}
	return n.GetChildren(name)
}

// ChildText returns the text of the named child. The second result is false
// if the child does not exist.
func ChildText(n *xmldom.Node, name string) (string, bool) {
	c := Child(n, name)
	if c == nil {
		return "", false
	}
	return c.Text, true
}

// Attr returns the value of the named attribute. The second result is false
// if n has no such attribute.
func Attr(n *xmldom.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	a := n.GetAttribute(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}
