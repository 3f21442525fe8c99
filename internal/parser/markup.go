package parser

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pitlane/internal/textutil"
)

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		)
	})
	return markdownInstance
}

var htmlTagPattern = regexp.MustCompile(`(?i)<(?:div|p|ul|ol|li|a|br|strong|em|span)\b`)

// normalizeBody undoes entity-escaping of pre-rendered bodies. Feed
// listings deliver selftext_html as "&lt;div class=&quot;md&quot;&gt;".
func normalizeBody(text string) string {
	if !strings.Contains(text, "<") && strings.Contains(text, "&lt;") {
		return textutil.DecodeEntities(text)
	}
	return text
}

// renderHTML returns text as HTML, rendering markdown when text carries no
// HTML structure of its own.
func renderHTML(text string) string {
	text = normalizeBody(text)
	if htmlTagPattern.MatchString(text) {
		return text
	}
	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}

// listAfterLabel walks the document in order and returns the item texts of
// the first <ul> or <ol> that follows a text node containing the contents
// label.
func listAfterLabel(body string) []string {
	doc, err := html.Parse(strings.NewReader(renderHTML(body)))
	if err != nil {
		return nil
	}
	labelSeen := false
	var items []string
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode && !labelSeen && labelPattern.MatchString(n.Data) {
			labelSeen = true
		}
		if n.Type == html.ElementNode && labelSeen && (n.DataAtom == atom.Ul || n.DataAtom == atom.Ol) {
			for li := n.FirstChild; li != nil; li = li.NextSibling {
				if li.Type == html.ElementNode && li.DataAtom == atom.Li {
					items = append(items, textutil.CollapseSpaces(nodeText(li)))
				}
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return items
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

// magnetHrefs returns the magnet href attributes of anchors in document
// order.
func magnetHrefs(body string) []string {
	doc, err := html.Parse(strings.NewReader(renderHTML(body)))
	if err != nil {
		return nil
	}
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if strings.EqualFold(attr.Key, "href") && strings.HasPrefix(strings.ToLower(strings.TrimSpace(attr.Val)), "magnet:") {
					out = append(out, strings.TrimSpace(attr.Val))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}
