package tickets

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func constant(n int) IntFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestRegistry_RegisterLookupEvaluate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register("b_var", constant(2)); err != nil {
		t.Fatalf("Register err=%v", err)
	}
	if err := reg.Register("a_var", constant(1)); err != nil {
		t.Fatalf("Register err=%v", err)
	}

	if got := reg.Names(); !reflect.DeepEqual(got, []string{"a_var", "b_var"}) {
		t.Fatalf("Names()=%v", got)
	}
	v, err := reg.Evaluate(context.Background(), "b_var")
	if err != nil || v != 2 {
		t.Fatalf("Evaluate(b_var)=(%d, %v), want (2, nil)", v, err)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Fatalf("Lookup(missing) ok=true")
	}
}

func TestRegistry_RejectsInvalidRegistrations(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if err := reg.Register("x", constant(1)); err != nil {
		t.Fatalf("Register err=%v", err)
	}
	if err := reg.Register("x", constant(2)); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := reg.Register("not-an-identifier", constant(1)); err == nil {
		t.Fatalf("expected invalid name error")
	}
	if err := reg.Register("nil_fn", nil); err == nil {
		t.Fatalf("expected nil function error")
	}
}

func TestRegistry_EvaluateUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Evaluate(context.Background(), "nope")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "UNKNOWN_VARIABLE" {
		t.Fatalf("err=%v, want UNKNOWN_VARIABLE 404", err)
	}
}
