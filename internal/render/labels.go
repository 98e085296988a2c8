package render

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	benefitClass      = "benefit"
	benefitLabelClass = "benefit-label"
	benefitTextClass  = "benefit-text"
)

// StyleLabels rewrites list items that open with a bold label ending in a
// colon, <li><strong>Label:</strong> text</li>, into
// <li class="benefit"><span class="benefit-label">Label:</span> <span class="benefit-text">text</span></li>.
// Running it over its own output changes nothing.
func StyleLabels(fragment string) string {
	if !strings.Contains(fragment, "<li") {
		return fragment
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return fragment
	}

	for _, n := range nodes {
		walk(n)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return fragment
		}
	}
	return buf.String()
}

func walk(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Li {
		styleItem(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
}

func styleItem(li *html.Node) {
	if hasClass(li, benefitClass) {
		return
	}

	container := li
	if p := firstSignificant(li); p != nil && p.DataAtom == atom.P {
		container = p
	}

	strong := firstSignificant(container)
	if strong == nil || strong.DataAtom != atom.Strong {
		return
	}
	if !strings.HasSuffix(strings.TrimSpace(textOf(strong)), ":") {
		return
	}

	label := newSpan(benefitLabelClass)
	moveChildren(strong, label)

	text := newSpan(benefitTextClass)
	for c := strong.NextSibling; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		text.AppendChild(c)
		c = next
	}
	if first := text.FirstChild; first != nil && first.Type == html.TextNode {
		first.Data = strings.TrimLeft(first.Data, " \t\n")
	}

	container.InsertBefore(label, strong)
	container.RemoveChild(strong)
	container.AppendChild(&html.Node{Type: html.TextNode, Data: " "})
	container.AppendChild(text)

	li.Attr = append(li.Attr, html.Attribute{Key: "class", Val: benefitClass})
}

// firstSignificant returns the first child element, skipping whitespace text.
// It returns nil if non-blank text comes first.
func firstSignificant(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case html.ElementNode:
			return c
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, f := range strings.Fields(a.Val) {
				if f == class {
					return true
				}
			}
		}
	}
	return false
}

func newSpan(class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
