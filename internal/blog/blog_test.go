package blog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePost(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	writePost(t, dir, "2024-03-01-hello.md", "# Hello, world\n\nFirst post.\n")
	writePost(t, dir, "2025-01-06-tables.md", "## Tables & code\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n```go\nfmt.Println(\"woof\")\n```\n")
	writePost(t, dir, "notes.txt", "not a post")
	if err := os.Mkdir(filepath.Join(dir, "drafts.md"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	return NewStore(dir)
}

func TestStore_ListSortsBySlugDescending(t *testing.T) {
	posts, err := newTestStore(t).List()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Slug != "2025-01-06-tables" || posts[1].Slug != "2024-03-01-hello" {
		t.Fatalf("unexpected order %q, %q", posts[0].Slug, posts[1].Slug)
	}
	if posts[0].Title != "Tables & code" || posts[1].Title != "Hello, world" {
		t.Fatalf("unexpected titles %q, %q", posts[0].Title, posts[1].Title)
	}
	if posts[0].ModTime.IsZero() {
		t.Fatalf("expected mod time to be set")
	}
}

func TestStore_ListMissingDir(t *testing.T) {
	posts, err := NewStore(filepath.Join(t.TempDir(), "missing")).List()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}
}

func TestStore_GetRendersMarkdown(t *testing.T) {
	post, err := newTestStore(t).Get("2025-01-06-tables")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if post.Title != "Tables & code" {
		t.Fatalf("unexpected title %q", post.Title)
	}
	if !strings.Contains(post.HTML, "<table>") {
		t.Fatalf("expected GFM table, got %q", post.HTML)
	}
	if !strings.Contains(post.HTML, `<code class="language-go">`) {
		t.Fatalf("expected fenced code block, got %q", post.HTML)
	}
	if !strings.Contains(post.HTML, `<h2 id="tables--code">`) {
		t.Fatalf("expected heading id, got %q", post.HTML)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)
	for _, slug := range []string{"", "missing", "..", "../etc/passwd", "a/b", `a\b`, "drafts", "notes"} {
		if _, err := store.Get(slug); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get(%q): expected ErrNotFound, got %v", slug, err)
		}
	}
}

func TestTitleOf(t *testing.T) {
	cases := map[string]string{
		"# Title\nbody":     "Title",
		"### Deep  \r\nx":   "Deep",
		"No heading":        "No heading",
		"":                  "",
		"#   # Odd # title": "Odd # title",
	}
	for in, want := range cases {
		if got := titleOf([]byte(in)); got != want {
			t.Fatalf("titleOf(%q)=%q, want %q", in, got, want)
		}
	}
}
