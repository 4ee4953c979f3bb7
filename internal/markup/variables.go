package markup

import (
	"context"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/pyconza/pyconza-site/internal/app/tickets"
)

// Variables resolves ${name} references in page sources.
type Variables interface {
	Lookup(name string) (tickets.IntFunc, bool)
}

// KindVariable is the node kind of a ${name} reference.
var KindVariable = ast.NewNodeKind("Variable")

// Variable is an inline ${name} reference. Value is filled in by resolve before rendering.
type Variable struct {
	ast.BaseInline

	Name     string
	Value    int
	Resolved bool
}

func (n *Variable) Kind() ast.NodeKind { return KindVariable }

func (n *Variable) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name":     n.Name,
		"Resolved": strconv.FormatBool(n.Resolved),
	}, nil)
}

type variableParser struct{}

func (variableParser) Trigger() []byte { return []byte{'$'} }

func (variableParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 4 || line[0] != '$' || line[1] != '{' {
		return nil
	}
	end := 2
	for end < len(line) && isNameByte(line[end], end == 2) {
		end++
	}
	if end == 2 || end >= len(line) || line[end] != '}' {
		return nil
	}
	name := string(line[2:end])
	block.Advance(end + 1)
	return &Variable{Name: name}
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

type variableRenderer struct{}

func (variableRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindVariable, renderVariable)
}

func renderVariable(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Variable)
	if n.Resolved {
		_, _ = w.WriteString(strconv.Itoa(n.Value))
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("${")
	_, _ = w.Write(util.EscapeHTML([]byte(n.Name)))
	_ = w.WriteByte('}')
	return ast.WalkContinue, nil
}

type variablesExtension struct{}

func (variablesExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(variableParser{}, 999),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(variableRenderer{}, 500),
	))
}

// resolve evaluates every Variable in doc once per distinct name.
func resolve(ctx context.Context, doc ast.Node, vars Variables) error {
	if vars == nil {
		return nil
	}
	cache := make(map[string]int)
	return ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		n, ok := node.(*Variable)
		if !ok {
			return ast.WalkContinue, nil
		}
		if v, seen := cache[n.Name]; seen {
			n.Value, n.Resolved = v, true
			return ast.WalkContinue, nil
		}
		fn, ok := vars.Lookup(n.Name)
		if !ok {
			return ast.WalkContinue, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return ast.WalkStop, err
		}
		cache[n.Name] = v
		n.Value, n.Resolved = v, true
		return ast.WalkContinue, nil
	})
}
