// Package termstream renders streaming markdown to a terminal. It
// wraps glamour and re-renders the accumulated document on each write,
// emitting only the newly stable portion, so output scrolls naturally
// as blocks complete while the still-streaming tail stays unprinted
// (or is previewed separately with the incomplete-markdown completer).
package termstream

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/agentdeck/streamdown/internal/markdown"
)

// StreamRenderer accumulates markdown and writes rendered output for
// every block except the one still being streamed. It implements
// io.Writer.
type StreamRenderer struct {
	tr     *glamour.TermRenderer
	output io.Writer
	opts   []glamour.TermRendererOption

	buf         bytes.Buffer // all markdown received so far
	committed   int          // bytes of buf covered by emitted blocks
	renderedLen int          // bytes of rendered output already written
}

// NewRenderer creates a streaming renderer writing to w. Options are
// passed through to glamour.
func NewRenderer(w io.Writer, opts ...glamour.TermRendererOption) (*StreamRenderer, error) {
	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return &StreamRenderer{tr: tr, output: w, opts: opts}, nil
}

// Write accepts a markdown chunk and emits any blocks that became
// stable because a newer block started after them.
func (sr *StreamRenderer) Write(p []byte) (int, error) {
	sr.buf.Write(p)
	if err := sr.emitStable(); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// stableEnd returns the byte offset of the start of the last block:
// everything before it can no longer change.
func (sr *StreamRenderer) stableEnd() int {
	text := sr.buf.String()
	blocks := markdown.Split(text)
	if len(blocks) <= 1 {
		return 0
	}
	return len(text) - len(blocks[len(blocks)-1])
}

func (sr *StreamRenderer) emitStable() error {
	end := sr.stableEnd()
	if end <= sr.committed {
		return nil
	}
	sr.committed = end
	return sr.render(sr.buf.String()[:end], false)
}

// render renders doc in full and writes only the portion beyond what
// was already written. Trailing newlines are withheld until the final
// render: the document margin changes as blocks are appended, so they
// are not stable output yet.
func (sr *StreamRenderer) render(doc string, final bool) error {
	rendered, err := sr.tr.Render(doc)
	if err != nil {
		return err
	}
	stable := len(rendered)
	if !final {
		for stable > 0 && rendered[stable-1] == '\n' {
			stable--
		}
	}
	if stable > sr.renderedLen {
		if _, err := io.WriteString(sr.output, rendered[sr.renderedLen:stable]); err != nil {
			return err
		}
		sr.renderedLen = stable
	}
	return nil
}

// Flush completes the stream: the trailing block has its open
// delimiters closed by the completer and everything not yet written is
// emitted, including the final margin.
func (sr *StreamRenderer) Flush() error {
	doc := strings.TrimSpace(sr.buf.String())
	if doc == "" {
		return nil
	}
	return sr.render(markdown.ParseIncompleteMarkdown(doc), true)
}

// Close flushes any remaining content.
func (sr *StreamRenderer) Close() error {
	return sr.Flush()
}

// Preview renders the still-streaming tail with its open delimiters
// heuristically closed, without committing it. Interactive callers can
// draw and later erase it; maxRows > 0 keeps only the last rows at the
// given width (0 disables trimming).
func (sr *StreamRenderer) Preview(maxRows, width int) (string, error) {
	tail := sr.buf.String()[sr.committed:]
	trimmed := strings.TrimSpace(tail)
	if trimmed == "" {
		return "", nil
	}
	rendered, err := sr.tr.Render(markdown.ParseIncompleteMarkdown(trimmed))
	if err != nil {
		return "", err
	}
	rendered = strings.Trim(rendered, "\n")
	if maxRows > 0 {
		rendered = lastRows(rendered, maxRows, width)
	}
	return rendered, nil
}

// Resize re-creates the glamour renderer at the new width and
// re-renders everything accumulated so far. The caller should clear
// the screen first.
func (sr *StreamRenderer) Resize(width int) error {
	if width <= 0 {
		return nil
	}

	opts := make([]glamour.TermRendererOption, 0, len(sr.opts)+1)
	opts = append(opts, sr.opts...)
	opts = append(opts, glamour.WithWordWrap(width))

	tr, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return err
	}
	sr.tr = tr
	sr.renderedLen = 0

	end := sr.committed
	if end == 0 {
		return nil
	}
	return sr.render(sr.buf.String()[:end], false)
}
