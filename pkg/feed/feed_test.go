package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <item>
      <title>  Budget approved  </title>
      <link>https://example.com/budget</link>
      <description>&lt;p&gt;The &amp;amp; budget passed &lt;b&gt;unanimously&lt;/b&gt;.&lt;/p&gt;</description>
      <pubDate>Mon, 05 Jan 2026 10:30:00 +0300</pubDate>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/second</link>
      <description>Plain text here.</description>
      <pubDate>not a date at all</pubDate>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <entry>
    <title>Atom entry</title>
    <link href="https://example.com/atom-entry"/>
    <summary>short</summary>
    <content>A considerably longer body that should win over the summary.</content>
    <updated>2026-01-06T08:00:00Z</updated>
  </entry>
</feed>`

func TestParseRSS(t *testing.T) {
	items, err := Parse([]byte(rssFixture), "example")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	first := items[0]
	if first.Source != "example" {
		t.Errorf("Source = %q, want %q", first.Source, "example")
	}
	if first.Title != "Budget approved" {
		t.Errorf("Title = %q, want trimmed title", first.Title)
	}
	if first.Link != "https://example.com/budget" {
		t.Errorf("Link = %q", first.Link)
	}
	if first.Published != "2026-01-05 07:30:00" {
		t.Errorf("Published = %q, want UTC normalized form", first.Published)
	}
	if first.Summary != "The & budget passed unanimously ." {
		t.Errorf("Summary = %q, want tags stripped and entities decoded", first.Summary)
	}

	// Unrecognized dates pass through.
	if items[1].Published != "not a date at all" {
		t.Errorf("Published = %q, want raw passthrough", items[1].Published)
	}
}

func TestParseAtom(t *testing.T) {
	items, err := Parse([]byte(atomFixture), "atomfeed")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}

	it := items[0]
	if it.Title != "Atom entry" {
		t.Errorf("Title = %q", it.Title)
	}
	if it.Link != "https://example.com/atom-entry" {
		t.Errorf("Link = %q, want href attribute", it.Link)
	}
	if it.Published != "2026-01-06 08:00:00" {
		t.Errorf("Published = %q, want normalized updated date", it.Published)
	}
	if !strings.Contains(it.Summary, "considerably longer body") {
		t.Errorf("Summary = %q, want the longer content element", it.Summary)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not xml}"), "x"); err == nil {
		t.Error("Parse accepted garbage input")
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "RFC1123Z with offset",
			input: "Mon, 05 Jan 2026 10:30:00 +0300",
			want:  "2026-01-05 07:30:00",
		},
		{
			name:  "RFC3339",
			input: "2026-01-06T08:00:00Z",
			want:  "2026-01-06 08:00:00",
		},
		{
			name:  "already sortable",
			input: "2026-01-07 12:00:00",
			want:  "2026-01-07 12:00:00",
		},
		{
			name:  "RFC822 with zone name",
			input: "05 Jan 26 10:30 UTC",
			want:  "2026-01-05 10:30:00",
		},
		{
			name:  "unparseable passes through",
			input: "somewhen in spring",
			want:  "somewhen in spring",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDate(tt.input); got != tt.want {
				t.Errorf("normalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips tags",
			input: `<div class="x">hello <b>world</b></div>`,
			want:  "hello world",
		},
		{
			name:  "decodes entities",
			input: "fish &amp; chips",
			want:  "fish & chips",
		},
		{
			name:  "breaks become spaces",
			input: "one<br>two<br/>three",
			want:  "one two three",
		},
		{
			name:  "whitespace collapses",
			input: "a   b\n\n c",
			want:  "a b c",
		},
		{
			name:  "unclosed angle bracket survives",
			input: "5 < 6 is true",
			want:  "5 < 6 is true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanSummary(tt.input); got != tt.want {
				t.Errorf("cleanSummary(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanSummaryTruncates(t *testing.T) {
	long := strings.Repeat("ж", maxSummaryLen+100)

	got := cleanSummary(long)
	runes := []rune(got)
	if len(runes) != maxSummaryLen+1 {
		t.Fatalf("truncated to %d runes, want %d", len(runes), maxSummaryLen+1)
	}
	if runes[len(runes)-1] != '…' {
		t.Errorf("truncated summary does not end in ellipsis: %q", string(runes[len(runes)-10:]))
	}
}

func TestFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		if _, err := w.Write([]byte(rssFixture)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	items, err := NewFetcher().Fetch(context.Background(), "example", srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("got %d items, want 2", len(items))
	}
	if gotUA == "" {
		t.Error("request carried no User-Agent")
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	if _, err := NewFetcher().Fetch(context.Background(), "example", srv.URL); err == nil {
		t.Error("Fetch accepted a non-200 response")
	}
}
