package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Anchor is one <a href> element found in a page.
type Anchor struct {
	// Href is the raw attribute value
	Href string

	// Text is the collapsed visible text of the element
	Text string

	// Target is the target attribute, if any
	Target string

	// Selector clicks exactly this anchor on a live page
	Selector string
}

// OpensNewContext reports whether a click is expected to open a new tab.
func (a Anchor) OpensNewContext() bool {
	return strings.EqualFold(a.Target, "_blank")
}

// ExtractAnchors parses rawHTML and returns the anchors that carry an href,
// in document order. scope limits the search to the subtree of the first
// element matching a simple selector: a tag name, #id or .class. An empty
// scope searches the whole document.
func ExtractAnchors(rawHTML, scope string) ([]Anchor, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := doc
	if scope != "" {
		root = findFirst(doc, parseSimpleSelector(scope))
		if root == nil {
			return nil, fmt.Errorf("no element matches %q", scope)
		}
	}

	var anchors []Anchor
	seen := make(map[string]int)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := attr(n, "href"); ok {
				seen[href]++
				anchors = append(anchors, Anchor{
					Href:     href,
					Text:     collapseText(n),
					Target:   attrOrEmpty(n, "target"),
					Selector: anchorSelector(scope, href, seen[href]),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return anchors, nil
}

// anchorSelector builds a Playwright selector for the nth anchor with href.
func anchorSelector(scope, href string, nth int) string {
	sel := fmt.Sprintf(`a[href="%s"]`, escapeAttr(href))
	if scope != "" {
		sel = scope + " " + sel
	}
	if nth > 1 {
		sel = fmt.Sprintf("%s >> nth=%d", sel, nth-1)
	}
	return sel
}

func escapeAttr(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `"`, `\"`)
}

type simpleSelector struct {
	tag   string
	id    string
	class string
}

func parseSimpleSelector(s string) simpleSelector {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return simpleSelector{id: s[1:]}
	case strings.HasPrefix(s, "."):
		return simpleSelector{class: s[1:]}
	default:
		return simpleSelector{tag: strings.ToLower(s)}
	}
}

func (sel simpleSelector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch {
	case sel.id != "":
		id, _ := attr(n, "id")
		return id == sel.id
	case sel.class != "":
		classes, _ := attr(n, "class")
		for _, c := range strings.Fields(classes) {
			if c == sel.class {
				return true
			}
		}
		return false
	default:
		return n.Data == sel.tag
	}
}

func findFirst(n *html.Node, sel simpleSelector) *html.Node {
	if sel.matches(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, sel); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrOrEmpty(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func collapseText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
