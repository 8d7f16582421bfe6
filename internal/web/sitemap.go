package web

import (
	"encoding/xml"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (s *Server) handleSitemap(c echo.Context) error {
	posts, err := s.posts.List()
	if err != nil {
		return err
	}
	base := c.Scheme() + "://" + c.Request().Host

	// The home page changes when its data files do; the listing when a post does.
	home := latest(s.started, modTime(s.cfg.ReadingPath), modTime(s.cfg.ProjectsPath))
	postTimes := make([]time.Time, 0, len(posts))
	for _, p := range posts {
		postTimes = append(postTimes, p.ModTime)
	}
	listing := latest(s.started, postTimes...)

	set := urlset{Xmlns: sitemapNS}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: base + "/", LastMod: isoDate(home)},
		sitemapURL{Loc: base + "/blog", LastMod: isoDate(listing)},
	)
	for _, p := range posts {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/blog/" + p.Slug, LastMod: isoDate(p.ModTime)})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, append([]byte(xml.Header), body...))
}

// modTime is zero when path is empty or unreadable.
func modTime(path string) time.Time {
	if path == "" {
		return time.Time{}
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// latest prefers data mod times over the fallback, which is used only when none is known.
func latest(fallback time.Time, times ...time.Time) time.Time {
	var newest time.Time
	for _, t := range times {
		if t.After(newest) {
			newest = t
		}
	}
	if newest.IsZero() {
		return fallback
	}
	return newest
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}
