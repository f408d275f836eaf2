package web

import (
	"bytes"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var excessiveLines = regexp.MustCompile(`\n{3,}`)

// Page is a fetched document converted to markdown.
type Page struct {
	URL      string
	Title    string
	Markdown string
}

// Converter turns HTML into markdown, keeping the main content of the page.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates a GitHub-flavored HTML to markdown converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Converter{converter: converter}
}

// Convert extracts the title and main content of an HTML document.
func (c *Converter) Convert(content []byte) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return Page{}, err
	}

	title := strings.TrimSpace(textOf(find(doc, atom.Title)))
	strip(doc)

	root := find(doc, atom.Main)
	if root == nil {
		root = find(doc, atom.Article)
	}
	if root == nil {
		root = find(doc, atom.Body)
	}
	if root == nil {
		root = doc
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return Page{}, err
	}
	markdown, err := c.converter.ConvertString(buf.String())
	if err != nil {
		return Page{}, err
	}
	markdown = strings.TrimSpace(excessiveLines.ReplaceAllString(markdown, "\n\n"))

	if title == "" {
		for _, line := range strings.Split(markdown, "\n") {
			if h, ok := strings.CutPrefix(line, "# "); ok {
				title = strings.TrimSpace(h)
				break
			}
		}
	}
	return Page{Title: title, Markdown: markdown}, nil
}

// find returns the first element with the given tag in document order.
func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// strip removes elements that never carry readable content.
func strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Iframe, atom.Svg:
				n.RemoveChild(c)
				c = next
				continue
			}
		}
		strip(c)
		c = next
	}
}
