package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	ghtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/agentdeck/streamdown/internal/highlight"
)

// policyRenderer overrides goldmark's rendering of links, images,
// autolinks and fenced code. Links outside the allow-list render as
// inert spans, blocked images render nothing, and the incomplete-link
// sentinel is tagged so the UI can style it as not-yet-clickable.
type policyRenderer struct {
	prefixes    []string
	highlighter *highlight.Highlighter
}

func newPolicyRenderer(prefixes []string, highlighter *highlight.Highlighter) renderer.NodeRenderer {
	return &policyRenderer{prefixes: prefixes, highlighter: highlighter}
}

func (r *policyRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindLink, r.renderLink)
	reg.Register(ast.KindAutoLink, r.renderAutoLink)
	reg.Register(ast.KindImage, r.renderImage)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r *policyRenderer) renderLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.Link)
	dest := string(n.Destination)

	switch {
	case dest == IncompleteLinkURL:
		if entering {
			_, _ = w.WriteString(`<a href="` + IncompleteLinkURL + `" data-incomplete="true">`)
		} else {
			_, _ = w.WriteString("</a>")
		}

	case LinkAllowed(r.prefixes, dest) && !ghtml.IsDangerousURL(n.Destination):
		if entering {
			_, _ = w.WriteString(`<a href="`)
			_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
			_, _ = w.WriteString(`"`)
			if n.Title != nil {
				_, _ = w.WriteString(` title="`)
				_, _ = w.Write(util.EscapeHTML(n.Title))
				_, _ = w.WriteString(`"`)
			}
			_, _ = w.WriteString(` target="_blank" rel="noopener noreferrer">`)
		} else {
			_, _ = w.WriteString("</a>")
		}

	default:
		// Keep the visible text, drop the destination.
		if entering {
			_, _ = w.WriteString(`<span data-blocked-link="true">`)
		} else {
			_, _ = w.WriteString("</span>")
		}
	}
	return ast.WalkContinue, nil
}

func (r *policyRenderer) renderAutoLink(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.AutoLink)
	url := n.URL(source)
	label := n.Label(source)

	if n.AutoLinkType == ast.AutoLinkURL && LinkAllowed(r.prefixes, string(url)) && !ghtml.IsDangerousURL(url) {
		_, _ = w.WriteString(`<a href="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(url, false)))
		_, _ = w.WriteString(`" target="_blank" rel="noopener noreferrer">`)
		_, _ = w.Write(util.EscapeHTML(label))
		_, _ = w.WriteString("</a>")
		return ast.WalkContinue, nil
	}

	_, _ = w.WriteString(`<span data-blocked-link="true">`)
	_, _ = w.Write(util.EscapeHTML(label))
	_, _ = w.WriteString("</span>")
	return ast.WalkContinue, nil
}

func (r *policyRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)
	dest := string(n.Destination)

	// Blocked images render nothing at all; there is no safe partial or
	// placeholder representation.
	if dest == IncompleteLinkURL || !LinkAllowed(r.prefixes, dest) || ghtml.IsDangerousURL(n.Destination) {
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<img src="`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML(textOf(n, source)))
	_, _ = w.WriteString(`"`)
	if n.Title != nil {
		_, _ = w.WriteString(` title="`)
		_, _ = w.Write(util.EscapeHTML(n.Title))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	return ast.WalkSkipChildren, nil
}

func (r *policyRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	language := string(n.Language(source))
	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	if r.highlighter != nil {
		if highlighted, ok := r.highlighter.HTML(code.String(), language); ok {
			_, _ = w.WriteString(highlighted)
			return ast.WalkContinue, nil
		}
	}

	_, _ = w.WriteString("<pre><code")
	if language != "" {
		_, _ = fmt.Fprintf(w, ` class="language-%s"`, string(util.EscapeHTML([]byte(language))))
	}
	_, _ = w.WriteString(">")
	_, _ = w.Write(util.EscapeHTML(code.Bytes()))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkContinue, nil
}

// textOf collects the plain text of a node's descendants, used for
// image alt attributes.
func textOf(n ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			switch t := node.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(source))
			case *ast.String:
				buf.Write(t.Value)
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.Bytes()
}
