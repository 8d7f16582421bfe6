package opengraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoImage is returned when a page carries no usable social-preview image.
var ErrNoImage = errors.New("opengraph: no image")

// imageProperties are checked in order; the first non-empty content wins.
var imageProperties = []string{"og:image", "og:image:url"}

// Reader looks up the social-preview image of a web page.
type Reader interface {
	ImageURL(ctx context.Context, pageURL string) (string, error)
}

// ExtractImageURL parses page markup and returns its og:image (or og:image:url) content.
func ExtractImageURL(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("opengraph: parse page: %w", err)
	}
	for _, property := range imageProperties {
		content, ok := doc.Find(fmt.Sprintf(`meta[property=%q]`, property)).First().Attr("content")
		if ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content), nil
		}
	}
	return "", ErrNoImage
}
