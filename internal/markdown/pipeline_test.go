package markdown

import (
	"strings"
	"testing"
)

func TestPipeline_RenderBasic(t *testing.T) {
	p := NewPipeline(Options{})
	blocks := p.Render("# Title\n\nHello world.")

	if len(blocks) != 2 {
		t.Fatalf("Render() returned %d blocks, want 2", len(blocks))
	}
	if !strings.Contains(blocks[0].HTML, "<h1>Title</h1>") {
		t.Errorf("heading html = %q", blocks[0].HTML)
	}
	if !strings.Contains(blocks[1].HTML, "<p>Hello world.</p>") {
		t.Errorf("paragraph html = %q", blocks[1].HTML)
	}
	if blocks[0].Cached || blocks[1].Cached {
		t.Error("first pass must not report cached blocks")
	}
}

func TestPipeline_MemoizesUnchangedBlocks(t *testing.T) {
	p := NewPipeline(Options{})
	var parsed []string
	p.parseHook = func(block string) { parsed = append(parsed, block) }

	p.Render("# Title\n\nFirst paragraph.\n\nSecond paragraph.")
	if len(parsed) != 3 {
		t.Fatalf("first pass parsed %d blocks, want 3", len(parsed))
	}

	parsed = nil
	blocks := p.Render("# Title\n\nFirst paragraph.\n\nSecond paragraph.")
	if len(parsed) != 0 {
		t.Fatalf("second pass re-parsed %d blocks, want 0: %q", len(parsed), parsed)
	}
	for i, b := range blocks {
		if !b.Cached {
			t.Errorf("block %d not served from cache", i)
		}
	}
}

func TestPipeline_OnlyChangedTailReparsed(t *testing.T) {
	p := NewPipeline(Options{})
	var parsed []string
	p.parseHook = func(block string) { parsed = append(parsed, block) }

	p.Render("# Title\n\nFirst paragraph.\n\nSecond para")
	parsed = nil
	p.Render("# Title\n\nFirst paragraph.\n\nSecond paragraph, now longer.")

	if len(parsed) != 1 {
		t.Fatalf("grow pass parsed %d blocks, want 1: %q", len(parsed), parsed)
	}
	if !strings.Contains(parsed[0], "now longer") {
		t.Errorf("wrong block re-parsed: %q", parsed[0])
	}
}

func TestPipeline_StreamingCompletesMarkup(t *testing.T) {
	p := NewPipeline(Options{Streaming: true})
	blocks := p.Render("some **bold tex")

	if len(blocks) != 1 {
		t.Fatalf("Render() returned %d blocks, want 1", len(blocks))
	}
	if !strings.Contains(blocks[0].HTML, "<strong>bold tex</strong>") {
		t.Errorf("streaming did not complete bold: %q", blocks[0].HTML)
	}
}

func TestPipeline_IncompleteLinkSentinel(t *testing.T) {
	p := NewPipeline(Options{Streaming: true})
	blocks := p.Render("see [the docs](https://exam")

	if len(blocks) != 1 {
		t.Fatalf("Render() returned %d blocks, want 1", len(blocks))
	}
	html := blocks[0].HTML
	if !strings.Contains(html, `data-incomplete="true"`) {
		t.Errorf("sentinel link not tagged: %q", html)
	}
	if !strings.Contains(html, IncompleteLinkURL) {
		t.Errorf("sentinel href missing: %q", html)
	}
}

func TestPipeline_BlockedLinkBecomesSpan(t *testing.T) {
	p := NewPipeline(Options{})
	blocks := p.Render("see [docs](https://example.com/page)")

	html := blocks[0].HTML
	if strings.Contains(html, "<a ") {
		t.Errorf("blocked link rendered as anchor: %q", html)
	}
	if !strings.Contains(html, `<span data-blocked-link="true">docs</span>`) {
		t.Errorf("blocked link span missing: %q", html)
	}
}

func TestPipeline_AllowedLinkRendersAnchor(t *testing.T) {
	p := NewPipeline(Options{
		LinkPolicy: LinkPolicy{AllowedHosts: []string{"example.com"}},
	})
	blocks := p.Render("see [docs](https://example.com/page)")

	html := blocks[0].HTML
	if !strings.Contains(html, `<a href="https://example.com/page"`) {
		t.Errorf("allowed link not rendered live: %q", html)
	}
	if !strings.Contains(html, `rel="noopener noreferrer"`) {
		t.Errorf("anchor missing rel attributes: %q", html)
	}
}

func TestPipeline_BlockedImageDropped(t *testing.T) {
	p := NewPipeline(Options{})
	blocks := p.Render("before ![alt](https://example.com/a.png) after")

	html := blocks[0].HTML
	if strings.Contains(html, "<img") {
		t.Errorf("blocked image rendered: %q", html)
	}
	if strings.Contains(html, "alt") {
		t.Errorf("blocked image leaked alt text: %q", html)
	}
}

func TestPipeline_AllowedImageRenders(t *testing.T) {
	p := NewPipeline(Options{
		LinkPolicy: LinkPolicy{AllowedHosts: []string{AllowAll}},
	})
	blocks := p.Render("![diagram](https://example.com/a.png)")

	html := blocks[0].HTML
	if !strings.Contains(html, `<img src="https://example.com/a.png"`) {
		t.Errorf("allowed image not rendered: %q", html)
	}
	if !strings.Contains(html, `alt="diagram"`) {
		t.Errorf("image alt missing: %q", html)
	}
}

func TestPipeline_JavascriptURLBlocked(t *testing.T) {
	p := NewPipeline(Options{
		LinkPolicy: LinkPolicy{AllowedHosts: []string{AllowAll}},
	})
	blocks := p.Render("[x](javascript:alert(1))")

	if strings.Contains(blocks[0].HTML, "javascript:") {
		t.Errorf("dangerous url leaked: %q", blocks[0].HTML)
	}
}

func TestPipeline_CodeFallbackWithoutTheme(t *testing.T) {
	p := NewPipeline(Options{})
	blocks := p.Render("```go\nfmt.Println(\"hi\")\n```")

	html := blocks[0].HTML
	if !strings.Contains(html, `<pre><code class="language-go">`) {
		t.Errorf("plain code block missing: %q", html)
	}
}

func TestPipeline_CodeHighlightedWithTheme(t *testing.T) {
	p := NewPipeline(Options{HighlightTheme: "monokai"})
	blocks := p.Render("```go\npackage main\n```")

	html := blocks[0].HTML
	if !strings.Contains(html, "style=") {
		t.Errorf("highlighted code missing inline styles: %q", html)
	}
}

func TestPipeline_UnknownLanguageFallsBack(t *testing.T) {
	p := NewPipeline(Options{HighlightTheme: "monokai"})
	blocks := p.Render("```nosuchlang\nstuff\n```")

	html := blocks[0].HTML
	if !strings.Contains(html, "<pre><code") {
		t.Errorf("unknown language did not fall back: %q", html)
	}
}

func TestPipeline_DifferentOptionsDifferentCacheKeys(t *testing.T) {
	a := Options{HighlightTheme: "monokai"}.fingerprint()
	b := Options{HighlightTheme: "dracula"}.fingerprint()
	c := Options{Streaming: true, HighlightTheme: "monokai"}.fingerprint()

	if a == b || a == c {
		t.Fatalf("option fingerprints collide: %q %q %q", a, b, c)
	}
	if len(a) != 16 {
		t.Fatalf("fingerprint length = %d, want 16", len(a))
	}
}
