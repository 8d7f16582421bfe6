package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/woofdog7/woof-site/internal/blog"
	"github.com/woofdog7/woof-site/internal/config"
	"github.com/woofdog7/woof-site/internal/core"
)

const robotsBody = "User-agent: *\nDisallow: /\n"

type indexPage struct {
	Title        string
	Projects     []config.Project
	Posts        []core.PostSummary
	Reading      config.Reading
	SubstackBase string
}

type blogPage struct {
	Posts []blog.Summary
}

type postPage struct {
	Title string
	Body  template.HTML
}

// handleIndex never fails because of the feed: RecentPosts degrades to a
// stale or empty list on its own.
func (s *Server) handleIndex(c echo.Context) error {
	ctx := c.Request().Context()
	return c.Render(http.StatusOK, "index.html", indexPage{
		Title:        siteTitle,
		Projects:     s.cfg.Projects,
		Posts:        s.recent.RecentPosts(ctx, s.cfg.RecentLimit),
		Reading:      config.LoadReading(s.cfg.ReadingPath),
		SubstackBase: s.cfg.SubstackBaseURL,
	})
}

func (s *Server) handleBlog(c echo.Context) error {
	posts, err := s.posts.List()
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "blog.html", blogPage{Posts: posts})
}

func (s *Server) handlePost(c echo.Context) error {
	post, err := s.posts.Get(c.Param("slug"))
	if errors.Is(err, blog.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "post.html", postPage{
		Title: post.Title,
		// Posts are authored locally and trusted.
		Body: template.HTML(post.HTML),
	})
}

func (s *Server) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, robotsBody)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleError renders the not-found page for 404s and a bare status line for
// everything else.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}
	if code >= http.StatusInternalServerError {
		core.LoggerFromContext(c.Request().Context(), s.logger).Error("request error", "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else if code == http.StatusNotFound {
		err = c.Render(code, "404.html", nil)
	} else {
		err = c.String(code, http.StatusText(code))
	}
	if err != nil {
		s.logger.Error("write error response", "error", err)
	}
}
