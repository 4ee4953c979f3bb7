package markup

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pyconza/pyconza-site/internal/app/tickets"
	"github.com/pyconza/pyconza-site/internal/platform/config"
	"github.com/pyconza/pyconza-site/internal/platform/logger"
)

func newRegistry(t *testing.T, vals map[string]int) *tickets.Registry {
	t.Helper()
	reg := tickets.NewRegistry()
	for name, v := range vals {
		v := v
		if err := reg.Register(name, func(context.Context) (int, error) { return v, nil }); err != nil {
			t.Fatalf("Register(%s) err=%v", name, err)
		}
	}
	return reg
}

func render(t *testing.T, r *Renderer, src string) string {
	t.Helper()
	out, err := r.Render(context.Background(), []byte(src))
	if err != nil {
		t.Fatalf("Render err=%v", err)
	}
	return string(out)
}

func TestRender_SubstitutesVariables(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, map[string]int{"durban_tickets_remaining": 42})
	r := New(config.DefaultSettings(".").Markup, reg, logger.Discard())

	got := render(t, r, "Only ${durban_tickets_remaining} tickets left!")
	if !strings.Contains(got, "Only 42 tickets left!") {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_UnknownVariableStaysLiteral(t *testing.T) {
	t.Parallel()

	r := New(config.DefaultSettings(".").Markup, newRegistry(t, nil), logger.Discard())

	got := render(t, r, "Price: ${not_registered} and $5 and ${bad-name}")
	if !strings.Contains(got, "${not_registered}") || !strings.Contains(got, "$5") || !strings.Contains(got, "${bad-name}") {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_VariablesInCodeSpansAreNotSubstituted(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, map[string]int{"n": 1})
	r := New(config.DefaultSettings(".").Markup, reg, logger.Discard())

	got := render(t, r, "Use `${n}` in a page.")
	if !strings.Contains(got, "<code>${n}</code>") {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_VariableErrorAbortsRender(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	reg := tickets.NewRegistry()
	if err := reg.Register("sold", func(context.Context) (int, error) { return 0, boom }); err != nil {
		t.Fatalf("Register err=%v", err)
	}
	r := New(config.DefaultSettings(".").Markup, reg, logger.Discard())

	if _, err := r.Render(context.Background(), []byte("${sold}")); !errors.Is(err, boom) {
		t.Fatalf("Render err=%v, want %v", err, boom)
	}
}

func TestRender_VariablesDisabled(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, map[string]int{"n": 7})
	r := New(config.MarkupConfig{Extensions: []string{ExtTables}}, reg, logger.Discard())

	got := render(t, r, "value ${n}")
	if !strings.Contains(got, "${n}") {
		t.Fatalf("Render=%q, want literal reference", got)
	}
}

func TestRender_Tables(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t, map[string]int{"online_tickets_sold": 12})
	r := New(config.DefaultSettings(".").Markup, reg, logger.Discard())

	src := "| Venue | Sold |\n|---|---|\n| Online | ${online_tickets_sold} |\n"
	got := render(t, r, src)
	if !strings.Contains(got, "<table>") || !strings.Contains(got, "<td>12</td>") {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_HeadingAttributes(t *testing.T) {
	t.Parallel()

	r := New(config.DefaultSettings(".").Markup, nil, logger.Discard())

	got := render(t, r, "## Tickets {#tickets .lead}\n")
	if !strings.Contains(got, `id="tickets"`) || !strings.Contains(got, `class="lead"`) {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_CodeHilite(t *testing.T) {
	t.Parallel()

	r := New(config.DefaultSettings(".").Markup, nil, logger.Discard())

	got := render(t, r, "```python\nprint('hello')\n```\n")
	if !strings.Contains(got, `class="codehilite"`) || !strings.Contains(got, "<pre") {
		t.Fatalf("Render=%q", got)
	}
}

func TestRender_SafeMode(t *testing.T) {
	t.Parallel()

	unsafe := New(config.MarkupConfig{SafeMode: false}, nil, logger.Discard())
	if got := render(t, unsafe, "<div class=\"x\">hi</div>\n"); !strings.Contains(got, `<div class="x">`) {
		t.Fatalf("unsafe Render=%q", got)
	}

	safe := New(config.MarkupConfig{SafeMode: true}, nil, logger.Discard())
	if got := render(t, safe, "<div class=\"x\">hi</div>\n"); strings.Contains(got, `<div class="x">`) {
		t.Fatalf("safe Render=%q, want raw HTML omitted", got)
	}
}
