// Package htmldom parses raw HTML into a memdom document, for running the
// engine against static page captures.
package htmldom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/threadly/threadly/internal/dom/memdom"
)

// Parse reads an HTML document and converts it to a queryable memdom tree.
// Script and style subtrees are dropped: their text is never message content.
func Parse(r io.Reader) (*memdom.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	doc := memdom.NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := convert(c); n != nil {
			doc.Root().Append(n)
		}
	}
	return doc, nil
}

// ParseString is a convenience wrapper for tests and captures held in memory.
func ParseString(s string) (*memdom.Document, error) {
	return Parse(strings.NewReader(s))
}

func convert(src *html.Node) *memdom.Node {
	if src.Type != html.ElementNode {
		return nil
	}
	if src.Data == "script" || src.Data == "style" {
		return nil
	}

	n := memdom.NewNode(src.Data)
	for _, attr := range src.Attr {
		n.WithAttr(attr.Key, attr.Val)
	}

	// Text runs become synthetic #text children so the reading order of
	// mixed content survives the conversion. Their tag never matches a
	// selector.
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if t := strings.TrimSpace(c.Data); t != "" {
				n.WithChild(memdom.NewNode("#text").WithText(t))
			}
		case html.ElementNode:
			if child := convert(c); child != nil {
				n.WithChild(child)
			}
		}
	}
	return n
}
