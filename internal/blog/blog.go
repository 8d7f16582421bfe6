package blog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// ErrNotFound is returned for slugs that do not name a post.
var ErrNotFound = errors.New("blog: post not found")

const postExt = ".md"

// Summary is a post as listed on the blog index.
type Summary struct {
	Slug    string
	Title   string
	ModTime time.Time
}

// Post is a rendered post.
type Post struct {
	Summary
	HTML string
}

// Store reads markdown posts from a directory. Files are read on every call so
// edits show up without a restart.
type Store struct {
	dir       string
	converter goldmark.Markdown
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, converter: newMarkdownConverter()}
}

// List returns every post, newest slug first. A missing directory yields no posts.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != postExt {
			continue
		}
		slug := strings.TrimSuffix(name, postExt)
		raw, info, err := s.read(slug)
		if err != nil {
			return nil, err
		}
		posts = append(posts, Summary{Slug: slug, Title: titleOf(raw), ModTime: info.ModTime()})
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Slug > posts[j].Slug })
	return posts, nil
}

// Get renders the post named by slug.
func (s *Store) Get(slug string) (*Post, error) {
	if !validSlug(slug) {
		return nil, ErrNotFound
	}
	raw, info, err := s.read(slug)
	if err != nil {
		return nil, err
	}
	body, err := renderMarkdown(s.converter, raw)
	if err != nil {
		return nil, fmt.Errorf("render post %s: %w", slug, err)
	}
	return &Post{
		Summary: Summary{Slug: slug, Title: titleOf(raw), ModTime: info.ModTime()},
		HTML:    body,
	}, nil
}

func (s *Store) read(slug string) ([]byte, fs.FileInfo, error) {
	path := filepath.Join(s.dir, slug+postExt)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("stat post %s: %w", slug, err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read post %s: %w", slug, err)
	}
	return raw, info, nil
}

// titleOf takes the first line of the file with leading '#' and spaces removed.
func titleOf(raw []byte) string {
	line, _, _ := strings.Cut(string(raw), "\n")
	return strings.TrimSpace(strings.TrimLeft(strings.TrimRight(line, "\r"), "# "))
}

func validSlug(slug string) bool {
	if slug == "" || strings.Trim(slug, ".") == "" {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.Contains(slug, "..")
}
