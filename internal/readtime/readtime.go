// Package readtime estimates how long an article takes to read and stamps
// the estimate into article frontmatter.
package readtime

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultWPM is the assumed reading speed in words per minute.
const DefaultWPM = 225

// FrontmatterKey is the frontmatter field holding the estimate in minutes.
const FrontmatterKey = "reading_time"

// ErrNoFrontmatter is returned by Stamp for documents without frontmatter.
var ErrNoFrontmatter = errors.New("readtime: no frontmatter")

var delimiter = []byte("---\n")

// Estimate returns the reading time of text in whole minutes, at least one.
// A non-positive wpm uses DefaultWPM.
func Estimate(text string, wpm int) int {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	words := len(strings.Fields(text))
	minutes := (words + wpm - 1) / wpm
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Split separates a "---" delimited YAML frontmatter block from the body.
// ok is false when the document has no frontmatter.
func Split(doc []byte) (frontmatter, body []byte, ok bool) {
	doc = bytes.ReplaceAll(doc, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(doc, delimiter) {
		return nil, doc, false
	}
	rest := doc[len(delimiter):]
	if bytes.HasPrefix(rest, delimiter) {
		return []byte{}, rest[len(delimiter):], true
	}
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return nil, doc, false
	}
	return rest[:end+1], rest[end+len("\n---\n"):], true
}

// Stamp computes the reading time of a document's body and writes it into
// its frontmatter as reading_time: 'N', replacing any previous value.
func Stamp(doc []byte, wpm int) ([]byte, int, error) {
	fm, body, ok := Split(doc)
	if !ok {
		return nil, 0, ErrNoFrontmatter
	}
	minutes := Estimate(string(body), wpm)

	var root yaml.Node
	if err := yaml.Unmarshal(fm, &root); err != nil {
		return nil, 0, fmt.Errorf("parse frontmatter: %w", err)
	}
	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, 0, fmt.Errorf("parse frontmatter: expected a mapping")
	}

	kept := mapping.Content[:0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == FrontmatterKey {
			continue
		}
		kept = append(kept, mapping.Content[i], mapping.Content[i+1])
	}
	mapping.Content = append(kept,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: FrontmatterKey},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: strconv.Itoa(minutes), Style: yaml.SingleQuotedStyle},
	)

	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, 0, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, 0, fmt.Errorf("encode frontmatter: %w", err)
	}

	var stamped bytes.Buffer
	stamped.Write(delimiter)
	stamped.Write(out.Bytes())
	stamped.Write(delimiter)
	stamped.Write(body)
	return stamped.Bytes(), minutes, nil
}
