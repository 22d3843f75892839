package bundler

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// liveReload reloads the page whenever the dev server reports a rebuild.
const liveReload = `new EventSource('/esbuild').addEventListener('change', () => location.reload())`

// Page lists the tags injected into an HTML template.
type Page struct {
	Styles     []string
	Scripts    []string
	LiveReload bool
}

// InjectTags parses an HTML template and appends a stylesheet link per
// style and a deferred script per script to the document head.
func InjectTags(template []byte, page Page) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(template))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}

	head := findElement(doc, atom.Head)
	body := findElement(doc, atom.Body)
	if head == nil || body == nil {
		return nil, errors.New("html template has no head or body")
	}

	for _, href := range page.Styles {
		head.AppendChild(element(atom.Link,
			html.Attribute{Key: "rel", Val: "stylesheet"},
			html.Attribute{Key: "href", Val: href},
		))
	}

	for _, src := range page.Scripts {
		head.AppendChild(element(atom.Script,
			html.Attribute{Key: "defer"},
			html.Attribute{Key: "src", Val: src},
		))
	}

	if page.LiveReload {
		script := element(atom.Script)
		script.AppendChild(&html.Node{Type: html.TextNode, Data: liveReload})
		body.AppendChild(script)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}

	return buf.Bytes(), nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
