package blog

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

func newMarkdownConverter() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		// Posts are authored locally, so inline HTML in them is trusted.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

func renderMarkdown(converter goldmark.Markdown, input []byte) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert(input, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
