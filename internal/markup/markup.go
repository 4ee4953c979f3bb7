// Package markup renders page sources (Markdown) to HTML the way the site's
// page filter is configured: tables, heading attributes, highlighted code and
// ${name} variables.
package markup

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/pyconza/pyconza-site/internal/platform/config"
)

// Extension names accepted in config.MarkupConfig.Extensions.
const (
	ExtTables     = "tables"
	ExtAttrList   = "attr_list"
	ExtCodeHilite = "codehilite"
	ExtVariables  = "variables"
)

const defaultCodeStyle = "friendly"

// Renderer converts Markdown to HTML. It is safe for concurrent use: the goldmark
// instance is configured once and every Render call parses into a fresh AST.
type Renderer struct {
	md   goldmark.Markdown
	vars Variables
}

// New builds a renderer from the markup configuration. Extension names it does not
// implement are logged and skipped.
func New(cfg config.MarkupConfig, vars Variables, log *slog.Logger) *Renderer {
	var (
		exts       []goldmark.Extender
		parserOpts []parser.Option
		htmlOpts   []renderer.Option
		useVars    bool
	)
	if !cfg.SafeMode {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}

	for _, name := range cfg.Extensions {
		switch name {
		case ExtTables:
			exts = append(exts, extension.Table)
		case ExtAttrList:
			parserOpts = append(parserOpts, parser.WithAttribute())
		case ExtCodeHilite:
			style := cfg.CodeStyle
			if style == "" {
				style = defaultCodeStyle
			}
			exts = append(exts, codeHiliteExtension{style: style})
		case ExtVariables:
			useVars = true
			exts = append(exts, variablesExtension{})
		default:
			if log != nil {
				log.Warn("markup_extension_unsupported", slog.String("extension", name))
			}
		}
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	r := &Renderer{md: md}
	if useVars {
		r.vars = vars
	}
	return r
}

// Render converts src to HTML. Variables are evaluated before any output is
// produced; an evaluation error aborts the render.
func (r *Renderer) Render(ctx context.Context, src []byte) ([]byte, error) {
	doc := r.md.Parser().Parse(text.NewReader(src))
	if err := resolve(ctx, doc, r.vars); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type codeHiliteExtension struct {
	style string
}

func (e codeHiliteExtension) Extend(m goldmark.Markdown) {
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&codeBlockRenderer{style: e.style}, 200),
	))
}

// codeBlockRenderer replaces goldmark's fenced code output with chroma HTML.
type codeBlockRenderer struct {
	style string
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	var lang string
	if n.Info != nil {
		lang = string(n.Language(source))
	}

	var out bytes.Buffer
	if err := quick.Highlight(&out, code.String(), lang, "html", r.style); err != nil {
		// Plain escaped block.
		_, _ = w.WriteString("<pre><code>")
		_, _ = w.Write(util.EscapeHTML(code.Bytes()))
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkSkipChildren, nil
	}
	_, _ = w.WriteString(`<div class="codehilite">`)
	_, _ = w.Write(out.Bytes())
	_, _ = w.WriteString("</div>\n")
	return ast.WalkSkipChildren, nil
}
