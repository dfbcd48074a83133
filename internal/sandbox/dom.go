package sandbox

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// DOM provides the document behind a sandboxed window
type DOM struct {
	doc     *goquery.Document
	changes []DOMChange
	mu      sync.RWMutex
}

// Element represents a single DOM node
type Element struct {
	sel *goquery.Selection
	dom *DOM
}

// ParseDOM builds a DOM from a markup fragment. The fragment is placed in
// a full html/head/body shell the same way a browser would.
func ParseDOM(markup string) (*DOM, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}
	return &DOM{doc: doc}, nil
}

// SanitizeMarkup strips scripts, event handlers and other active content
// from markup, keeping the structure and user-generated-content tags.
func SanitizeMarkup(markup string) string {
	return bluemonday.UGCPolicy().Sanitize(markup)
}

// Query finds elements by CSS selector. Invalid selectors match nothing.
func (d *DOM) Query(selector string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.wrap(d.doc.Find(selector))
}

// XPath finds elements by XPath expression. Matches that are not elements
// (text, attributes) are skipped.
func (d *DOM) XPath(expr string) ([]*Element, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.doc.Nodes) == 0 {
		return []*Element{}, nil
	}
	nodes, err := htmlquery.QueryAll(d.doc.Nodes[0], expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	elems := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		elems = append(elems, &Element{sel: d.doc.FindNodes(n), dom: d})
	}
	return elems, nil
}

// ByID returns the first element whose id attribute equals id.
func (d *DOM) ByID(id string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	match := d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
	if match.Length() == 0 {
		return nil
	}
	return &Element{sel: match, dom: d}
}

// ByClass returns elements carrying every class in the space separated list.
func (d *DOM) ByClass(names string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	classes := strings.Fields(names)
	if len(classes) == 0 {
		return []*Element{}
	}
	return d.wrap(d.doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, c := range classes {
			if !s.HasClass(c) {
				return false
			}
		}
		return true
	}))
}

// ByTag returns elements with the given tag name, or all elements for "*".
func (d *DOM) ByTag(tag string) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	all := d.doc.Find("*")
	if tag == "*" {
		return d.wrap(all)
	}
	return d.wrap(all.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.EqualFold(goquery.NodeName(s), tag)
	}))
}

// Title returns the text of the first title element.
func (d *DOM) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Body returns the body element.
func (d *DOM) Body() *Element {
	return d.first("body")
}

// Root returns the html element.
func (d *DOM) Root() *Element {
	return d.first("html")
}

// HTML renders the whole document.
func (d *DOM) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Html()
}

// Changes returns accumulated DOM changes
func (d *DOM) Changes() []DOMChange {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]DOMChange{}, d.changes...)
}

func (d *DOM) record(change DOMChange) {
	d.changes = append(d.changes, change)
}

func (d *DOM) first(selector string) *Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &Element{sel: sel, dom: d}
}

func (d *DOM) wrap(sel *goquery.Selection) []*Element {
	elems := make([]*Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elems = append(elems, &Element{sel: s, dom: d})
	})
	return elems
}

// Element methods

// TagName returns the upper-cased tag name, as browsers report it.
func (e *Element) TagName() string {
	return strings.ToUpper(goquery.NodeName(e.sel))
}

// ID returns the id attribute.
func (e *Element) ID() string {
	v, _ := e.GetAttribute("id")
	return v
}

// ClassName returns the class attribute.
func (e *Element) ClassName() string {
	v, _ := e.GetAttribute("class")
	return v
}

// Text returns the combined text of the element and its descendants.
func (e *Element) Text() string {
	e.dom.mu.RLock()
	defer e.dom.mu.RUnlock()
	return e.sel.Text()
}

// HTML returns the inner HTML of the element.
func (e *Element) HTML() string {
	e.dom.mu.RLock()
	defer e.dom.mu.RUnlock()
	h, err := e.sel.Html()
	if err != nil {
		return ""
	}
	return h
}

// OuterHTML returns the element's markup including its own tag.
func (e *Element) OuterHTML() string {
	e.dom.mu.RLock()
	defer e.dom.mu.RUnlock()
	h, err := goquery.OuterHtml(e.sel)
	if err != nil {
		return ""
	}
	return h
}

// GetAttribute retrieves attribute value
func (e *Element) GetAttribute(name string) (string, bool) {
	e.dom.mu.RLock()
	defer e.dom.mu.RUnlock()
	return e.sel.Attr(name)
}

// SetAttribute sets attribute value and records change
func (e *Element) SetAttribute(name, value string) {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	e.sel.SetAttr(name, value)
	e.dom.record(DOMChange{
		Type:     "set_attribute",
		Selector: e.describe(),
		Property: name,
		Value:    value,
	})
}

// SetText replaces the element's children with a text node and records change
func (e *Element) SetText(value string) {
	e.dom.mu.Lock()
	defer e.dom.mu.Unlock()
	e.sel.SetText(value)
	e.dom.record(DOMChange{
		Type:     "set_text",
		Selector: e.describe(),
		Property: "textContent",
		Value:    value,
	})
}

func (e *Element) describe() string {
	name := goquery.NodeName(e.sel)
	if id, ok := e.sel.Attr("id"); ok && id != "" {
		return name + "#" + id
	}
	return name
}
