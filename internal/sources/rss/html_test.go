package rss

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFirstImageSrc(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "single quoted", in: `<img src='https://x/a.png'>`, want: "https://x/a.png", wantOK: true},
		{name: "first of many", in: `<p>hi</p><figure><img src="https://x/1.png"></figure><img src="https://x/2.png">`, want: "https://x/1.png", wantOK: true},
		{name: "uppercase tag", in: `<IMG SRC="https://x/upper.png">`, want: "https://x/upper.png", wantOK: true},
		{name: "no image", in: `<p>just words</p>`},
		{name: "empty body", in: ``},
		{name: "first image without src", in: `<img alt="x"><img src="https://x/second.png">`},
		{name: "blank src", in: `<img src="   ">`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok, err := FirstImageSrc(tc.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if ok != tc.wantOK || got != tc.want {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.want, tc.wantOK, got, ok)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"plain   summary\ntext", "plain summary text"},
		{"<p>Hello <strong>world</strong></p><p>again</p>", "Hello world again"},
		{"<p>Fish &amp; chips</p>", "Fish & chips"},
		{"<p>keep</p><script>alert(1)</script><style>p{}</style>", "keep"},
		{"<div>\n  <img src='a.png'>  caption\t</div>", "caption"},
	}
	for _, tc := range cases {
		if got := PlainText(tc.in); got != tc.want {
			t.Fatalf("PlainText(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := Truncate(long, 180)
	if got != strings.Repeat("a", 180)+Ellipsis {
		t.Fatalf("expected 180 chars plus ellipsis, got %d runes", utf8.RuneCountInString(got))
	}

	short := strings.Repeat("b", 100)
	if got := Truncate(short, 180); got != short {
		t.Fatalf("expected short text unchanged, got %q", got)
	}

	exact := strings.Repeat("c", 180)
	if got := Truncate(exact, 180); got != exact {
		t.Fatalf("expected text at the limit unchanged")
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	in := strings.Repeat("é", 200)
	got := Truncate(in, 180)
	if utf8.RuneCountInString(got) != 181 {
		t.Fatalf("expected 181 runes, got %d", utf8.RuneCountInString(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid utf-8 output")
	}
}

func TestItemBody(t *testing.T) {
	if got := (Item{Content: "c", Description: "d"}).Body(); got != "c" {
		t.Fatalf("expected content, got %q", got)
	}
	if got := (Item{Description: "d"}).Body(); got != "d" {
		t.Fatalf("expected description, got %q", got)
	}
	if got := (Item{}).Body(); got != "" {
		t.Fatalf("expected empty body, got %q", got)
	}
}
