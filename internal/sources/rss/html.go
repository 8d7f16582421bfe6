package rss

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ellipsis marks a description that was cut short.
const Ellipsis = "…"

// FirstImageSrc returns the src of the first <img> element in an entry body.
// Only the first image is considered; an image without a usable src yields false.
func FirstImageSrc(htmlText string) (string, bool, error) {
	if !strings.Contains(strings.ToLower(htmlText), "<img") {
		return "", false, nil
	}
	root, err := parseFragment(htmlText)
	if err != nil {
		return "", false, err
	}
	img := findFirst(root, atom.Img)
	if img == nil {
		return "", false, nil
	}
	src := strings.TrimSpace(attrValue(img, "src"))
	if src == "" {
		return "", false, nil
	}
	return src, true, nil
}

// PlainText strips markup from an entry body: text nodes are joined with single
// spaces and runs of whitespace collapse. Script and style contents are dropped.
func PlainText(htmlText string) string {
	if strings.TrimSpace(htmlText) == "" {
		return ""
	}
	if !strings.Contains(htmlText, "<") && !strings.Contains(htmlText, "&") {
		return strings.Join(strings.Fields(htmlText), " ")
	}
	root, err := parseFragment(htmlText)
	if err != nil {
		return strings.Join(strings.Fields(htmlText), " ")
	}

	var words []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(words, " ")
}

// Truncate keeps the first max runes of text and appends Ellipsis when anything was cut.
func Truncate(text string, max int) string {
	if max < 0 {
		max = 0
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + Ellipsis
}

// parseFragment parses partial HTML from a feed entry under a synthetic <div>.
func parseFragment(htmlText string) (*html.Node, error) {
	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(htmlText), root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html fragment: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
