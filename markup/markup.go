// Package markup wraps goquery behind the small parse/select surface the
// scrapers need, so site code never deals with a DOM library directly.
package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a parsed markup tree.
type Document struct {
	doc *goquery.Document
}

// Element is one node selected from a Document.
type Element struct {
	sel *goquery.Selection
}

// Parse builds a Document from raw markup.
func Parse(html string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Select returns all elements matching the CSS-like selector.
func (d *Document) Select(selector string) []*Element {
	return collect(d.doc.Find(selector))
}

// SelectFirst returns the first match, or nil when nothing matches.
func (d *Document) SelectFirst(selector string) *Element {
	return first(d.doc.Find(selector))
}

// Select returns all descendants of the element matching the selector.
func (e *Element) Select(selector string) []*Element {
	return collect(e.sel.Find(selector))
}

// SelectFirst returns the first matching descendant, or nil.
func (e *Element) SelectFirst(selector string) *Element {
	return first(e.sel.Find(selector))
}

// Text returns the element's text content with surrounding space trimmed.
func (e *Element) Text() string {
	return strings.TrimSpace(e.sel.Text())
}

// Attr returns the named attribute and whether it was present.
func (e *Element) Attr(name string) (string, bool) {
	return e.sel.Attr(name)
}

func collect(sel *goquery.Selection) []*Element {
	elements := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{sel: s})
	})
	return elements
}

func first(sel *goquery.Selection) *Element {
	if sel.Length() == 0 {
		return nil
	}
	return &Element{sel: sel.First()}
}
