// Package highlight wraps chroma for fenced code blocks. Unknown
// languages and tokenizer failures are not errors: callers fall back to
// plain rendering for that block only.
package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter renders code to HTML with a fixed chroma style.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New creates a highlighter using the named chroma style, falling back
// to the default style when the name is unknown.
func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(false)),
	}
}

// HTML highlights code for the given language tag. ok is false when the
// language is unrecognized or tokenizing fails.
func (h *Highlighter) HTML(code, language string) (html string, ok bool) {
	if language == "" {
		return "", false
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return "", false
	}
	return sb.String(), true
}
