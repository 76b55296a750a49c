package plotfunc

import (
	"reflect"
	"testing"

	"sqlbatch/pkg/tabular"
)

func mustRegister(t *testing.T, r *Registry, name string, fn any) *Descriptor {
	t.Helper()
	if err := r.Register(name, fn); err != nil {
		t.Fatalf("Register %s: %v", name, err)
	}
	d, ok := r.Lookup(name)
	if !ok {
		t.Fatalf("Lookup %s failed", name)
	}
	return d
}

func TestBind_ResolvesDatasetsAndReserved(t *testing.T) {
	t.Parallel()

	type args struct {
		Revenue   *tabular.Table
		Orders    *tabular.Table
		OutputDir string
	}
	var got args
	r := NewRegistry()
	d := mustRegister(t, r, "plot_both", func(a args) error {
		got = a
		return nil
	})

	revenue := &tabular.Table{Columns: []string{"c"}}
	orders := &tabular.Table{Columns: []string{"o"}}
	invoke, missing := Bind(d,
		map[string]*tabular.Table{"revenue": revenue, "orders": orders},
		map[string]string{"output_dir": "/plots"},
	)
	if missing != nil {
		t.Fatalf("missing = %v, want none", missing)
	}
	if err := invoke(); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got.Revenue != revenue || got.Orders != orders || got.OutputDir != "/plots" {
		t.Fatalf("bound args = %+v", got)
	}
}

func TestBind_MissingDataset(t *testing.T) {
	t.Parallel()

	type args struct {
		RevenueTable *tabular.Table
		OutputDir    string
	}
	invoked := false
	r := NewRegistry()
	d := mustRegister(t, r, "plot_revenue", func(a args) error {
		invoked = true
		return nil
	})

	invoke, missing := Bind(d, map[string]*tabular.Table{}, map[string]string{"output_dir": "x"})
	if invoke != nil {
		t.Fatalf("expected nil invoke on binding failure")
	}
	if !reflect.DeepEqual(missing, []string{"revenue_table"}) {
		t.Fatalf("missing = %v, want [revenue_table]", missing)
	}
	if invoked {
		t.Fatalf("function must not run when binding fails")
	}
}

func TestBind_MissingReserved(t *testing.T) {
	t.Parallel()

	type args struct {
		OutputDir string
	}
	r := NewRegistry()
	d := mustRegister(t, r, "plot_out", func(a args) error { return nil })

	_, missing := Bind(d, nil, nil)
	if !reflect.DeepEqual(missing, []string{"output_dir"}) {
		t.Fatalf("missing = %v, want [output_dir]", missing)
	}
}

func TestBind_ReservedShadowsDataset(t *testing.T) {
	t.Parallel()

	// A table field named like the reserved value must not silently bind to
	// a dataset of the same name.
	type args struct {
		OutputDir *tabular.Table
	}
	r := NewRegistry()
	d := mustRegister(t, r, "plot_shadow", func(a args) error { return nil })

	_, missing := Bind(d,
		map[string]*tabular.Table{"output_dir": {}},
		map[string]string{"output_dir": "/plots"},
	)
	if !reflect.DeepEqual(missing, []string{"output_dir"}) {
		t.Fatalf("missing = %v, want [output_dir]", missing)
	}
}

func TestBind_NoParams(t *testing.T) {
	t.Parallel()

	type args struct{}
	ran := false
	r := NewRegistry()
	d := mustRegister(t, r, "plot_static", func(a args) error {
		ran = true
		return nil
	})

	invoke, missing := Bind(d, nil, nil)
	if missing != nil {
		t.Fatalf("missing = %v", missing)
	}
	if err := invoke(); err != nil || !ran {
		t.Fatalf("invoke err=%v ran=%v", err, ran)
	}
}
