// Package xmltree parses XML documents into a labelled element tree that
// remembers where every element starts.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Element is one node of the tree.
type Element struct {
	Name     xml.Name
	Attr     []xml.Attr
	Text     string // character data directly inside the element
	Children []*Element
	Line     int // 1-based line of the start tag
	Column   int // 0-based column of the start tag
}

// Document is a parsed file. Raw keeps the bytes so they can be handed to a
// schema engine without reading the file twice.
type Document struct {
	Path string
	Root *Element
	Raw  []byte
}

// SyntaxError is a malformed-document error with its position.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("XML syntax error on line %d: %s", e.Line, e.Msg)
}

// ReadError reports a document that could not be read from disk.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// ParseFile reads and parses path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

const msgExtraContent = "Extra content at the end of the document"

var utf8BOM = []byte("\ufeff")

// ParseBytes parses an in-memory document. Anything but whitespace, comments
// and processing instructions outside the root element is a SyntaxError.
func ParseBytes(data []byte) (*Document, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	var (
		root  *Element
		stack []*Element
		text  []*strings.Builder
	)
	for {
		line, col := d.InputPos()
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, syntaxError(d, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, &SyntaxError{Line: line, Column: col - 1, Msg: msgExtraContent}
			}
			el := &Element{Name: t.Name, Attr: t.Attr, Line: line, Column: col - 1}
			if n := len(stack); n > 0 {
				parent := stack[n-1]
				parent.Children = append(parent.Children, el)
			} else {
				root = el
			}
			stack = append(stack, el)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			n := len(stack)
			stack[n-1].Text = text[n-1].String()
			stack = stack[:n-1]
			text = text[:n-1]
		case xml.CharData:
			if n := len(text); n > 0 {
				text[n-1].Write(t)
				continue
			}
			if len(bytes.TrimSpace(bytes.TrimPrefix(t, utf8BOM))) == 0 {
				continue
			}
			msg := msgExtraContent
			if root == nil {
				msg = "Start tag expected, '<' not found"
			}
			return nil, &SyntaxError{Line: line, Column: col - 1, Msg: msg}
		}
	}
	if root == nil {
		line, col := d.InputPos()
		return nil, &SyntaxError{Line: line, Column: col - 1, Msg: "no root element found"}
	}
	return &Document{Root: root, Raw: data}, nil
}

func syntaxError(d *xml.Decoder, err error) error {
	line, col := d.InputPos()
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Line: se.Line, Column: col - 1, Msg: se.Msg}
	}
	return &SyntaxError{Line: line, Column: col - 1, Msg: err.Error()}
}

// ---- element helpers ----

// Local is the element name without its namespace.
func (e *Element) Local() string { return e.Name.Local }

// Tag renders the name in Clark notation, {namespace}local.
func (e *Element) Tag() string {
	if e.Name.Space == "" {
		return e.Name.Local
	}
	return "{" + e.Name.Space + "}" + e.Name.Local
}

// Is reports whether the element has the given namespace and local name.
func (e *Element) Is(space, local string) bool {
	return e.Name.Local == local && e.Name.Space == space
}

// Attribute returns the value of an unqualified attribute.
func (e *Element) Attribute(local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Local == local && (a.Name.Space == "" || a.Name.Space == e.Name.Space) {
			return a.Value, true
		}
	}
	return "", false
}

// AttributeValue is Attribute with a default of "".
func (e *Element) AttributeValue(local string) string {
	v, _ := e.Attribute(local)
	return v
}

// ChildAt returns the i-th child element, or nil.
func (e *Element) ChildAt(i int) *Element {
	if i < 0 || i >= len(e.Children) {
		return nil
	}
	return e.Children[i]
}

// Child returns the first child element with the local name, or nil.
func (e *Element) Child(local string) *Element {
	for _, c := range e.Children {
		if c.Name.Local == local {
			return c
		}
	}
	return nil
}

// Descendants returns, in document order, every element below e with the
// given namespace and local name.
func (e *Element) Descendants(space, local string) []*Element {
	var out []*Element
	var walk func(*Element)
	walk = func(el *Element) {
		for _, c := range el.Children {
			if c.Is(space, local) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// TrimmedText is Text without surrounding whitespace.
func (e *Element) TrimmedText() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.Text)
}
