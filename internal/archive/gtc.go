package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// XMLArchiveVersion is the gtcArchive version attribute that is understood.
const XMLArchiveVersion = "1.5.0"

// JSONVersionPrefix prefixes the version of every gtcArchiveJSON document.
const JSONVersionPrefix = "https://measurement.govt.nz/gtc/json_"

var (
	xmlSections  = []string{"leafNodes", "taggedReals", "taggedComplexes", "untaggedReals", "intermediates"}
	jsonSections = []string{"leaf_nodes", "tagged_reals", "tagged_complex", "intermediate_uids"}
)

// XMLArchive deserializes a gtcArchive element.
type XMLArchive struct{}

func (XMLArchive) Deserialize(el *xmltree.Element) error {
	version, ok := el.Attribute("version")
	if !ok {
		return errors.New("missing XML Archive version")
	}
	if version != XMLArchiveVersion {
		return fmt.Errorf("Invalid XML Archive version '%s'", version)
	}
	for _, name := range xmlSections {
		if el.Child(name) == nil {
			return fmt.Errorf("missing <%s>", name)
		}
	}
	for _, leaf := range el.Child("leafNodes").Children {
		if _, ok := leaf.Attribute("uid"); !ok {
			return fmt.Errorf("<%s> on line %d has no uid", leaf.Local(), leaf.Line)
		}
	}
	return nil
}

// JSONArchive deserializes the JSON text of a gtcArchiveJSON element.
// Repeated keys are accepted with the last one winning, and the bare
// Infinity, -Infinity and NaN literals that GTC writes for degrees of
// freedom are accepted as values.
type JSONArchive struct{}

func (JSONArchive) Deserialize(el *xmltree.Element) error {
	data, err := QuoteNonFinite([]byte(el.TrimmedText()))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	var doc map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if doc == nil {
		return errors.New("the archive is not a JSON object")
	}
	if class, _ := doc["CLASS"].(string); class != "Archive" {
		return fmt.Errorf("unexpected CLASS %v, expected 'Archive'", doc["CLASS"])
	}
	version, _ := doc["version"].(string)
	if !strings.HasPrefix(version, JSONVersionPrefix) {
		return fmt.Errorf("unsupported JSON Archive version '%v'", doc["version"])
	}
	for _, key := range jsonSections {
		v, ok := doc[key]
		if !ok {
			return fmt.Errorf("'%s'", key)
		}
		if _, ok := v.(map[string]any); !ok {
			return fmt.Errorf("'%s' must be a JSON object", key)
		}
	}
	return nil
}

var nonFinite = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// QuoteNonFinite turns the bare Infinity, -Infinity and NaN literals into
// JSON strings. String contents are left untouched.
func QuoteNonFinite(data []byte) ([]byte, error) {
	var out []byte
	inString, escaped := false, false
	last := 0
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			continue
		case '-', 'I', 'N':
		default:
			continue
		}
		for _, lit := range nonFinite {
			if !bytes.HasPrefix(data[i:], lit) {
				continue
			}
			end := i + len(lit)
			if end < len(data) && isIdentByte(data[end]) {
				return nil, fmt.Errorf("unexpected literal at offset %d", i)
			}
			out = append(out, data[last:i]...)
			out = append(out, '"')
			out = append(out, lit...)
			out = append(out, '"')
			last = end
			i = end - 1
			break
		}
	}
	if inString {
		return nil, io.ErrUnexpectedEOF
	}
	if out == nil {
		return data, nil
	}
	return append(out, data[last:]...), nil
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
