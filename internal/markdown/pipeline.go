package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/agentdeck/streamdown/internal/highlight"
)

const (
	parserCacheSize = 100
	renderCacheSize = 1024
)

// Options fix a rendering session's behavior. They are immutable once
// the pipeline is built; the derived fingerprint keys the parser cache.
type Options struct {
	// Streaming runs the incomplete-markdown completer on each pass
	// before splitting, so partially received text renders safely.
	Streaming bool

	// LinkPolicy gates which links and images render live.
	LinkPolicy LinkPolicy

	// HighlightTheme names the chroma style for fenced code. Empty
	// disables highlighting.
	HighlightTheme string
}

// fingerprint derives a stable cache key from the option set. This is
// computed once at session setup, never from runtime introspection.
func (o Options) fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "streaming=%t\x00hosts=%s\x00www=%t\x00http=%t\x00theme=%s",
		o.Streaming,
		strings.Join(o.LinkPolicy.AllowedHosts, ","),
		o.LinkPolicy.IncludeWww,
		o.LinkPolicy.AllowHTTP,
		o.HighlightTheme)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Block is one rendered unit of output. Source is the exact input slice
// the block covers; Cached reports that the HTML was reused from a
// previous pass.
type Block struct {
	Source string
	HTML   string
	Cached bool
}

// Pipeline turns accumulated markdown into an ordered sequence of
// rendered blocks, reusing cached output for blocks whose content did
// not change since the last pass. A pipeline is owned by one rendering
// session; it is not a process-wide singleton.
type Pipeline struct {
	opts        Options
	fingerprint string
	prefixes    []string
	parsers     *LRU[goldmark.Markdown]
	rendered    *LRU[string]

	// parseHook, when set, observes every block that is actually parsed
	// (a cache miss). Tests use it to verify memoization.
	parseHook func(block string)
}

// NewPipeline builds a pipeline for the given options.
func NewPipeline(opts Options) *Pipeline {
	return &Pipeline{
		opts:        opts,
		fingerprint: opts.fingerprint(),
		prefixes:    AllowedDomainsToLinkPrefixes(opts.LinkPolicy),
		parsers:     NewLRU[goldmark.Markdown](parserCacheSize),
		rendered:    NewLRU[string](renderCacheSize),
	}
}

// Render processes the full accumulated text and returns one rendered
// block per split unit, in source order. It never fails: a parser error
// on one block degrades that block to escaped preformatted text.
func (p *Pipeline) Render(text string) []Block {
	if p.opts.Streaming {
		text = ParseIncompleteMarkdown(strings.TrimSpace(text))
	}

	sources := Split(text)
	blocks := make([]Block, 0, len(sources))
	for _, src := range sources {
		key := p.fingerprint + "\x00" + src
		if html, ok := p.rendered.Get(key); ok {
			blocks = append(blocks, Block{Source: src, HTML: html, Cached: true})
			continue
		}
		html := p.renderBlock(src)
		p.rendered.Put(key, html)
		blocks = append(blocks, Block{Source: src, HTML: html})
	}
	return blocks
}

func (p *Pipeline) renderBlock(src string) string {
	if p.parseHook != nil {
		p.parseHook(src)
	}
	var buf bytes.Buffer
	if err := p.parser().Convert([]byte(src), &buf); err != nil {
		return "<pre>" + string(util.EscapeHTML([]byte(src))) + "</pre>\n"
	}
	return buf.String()
}

// parser returns the compiled goldmark pipeline for this option set,
// building it on first use. The LRU keeps rebuilds bounded when many
// sessions share a cache.
func (p *Pipeline) parser() goldmark.Markdown {
	if md, ok := p.parsers.Get(p.fingerprint); ok {
		return md
	}

	var hl *highlight.Highlighter
	if p.opts.HighlightTheme != "" {
		hl = highlight.New(p.opts.HighlightTheme)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(
				util.Prioritized(newPolicyRenderer(p.prefixes, hl), 100),
			),
		),
	)
	p.parsers.Put(p.fingerprint, md)
	return md
}
