// Package plotfunc discovers and invokes user-authored plot functions. A plot
// function is a Go func taking a single struct whose exported fields declare
// the inputs it needs: dataset tables by name, plus the reserved output
// directory. The registry introspects that struct once at registration and
// records the declared input names, so selection and binding never touch
// reflection details again.
//
// Functions reach the registry two ways: direct Register calls (host-compiled
// plot packages), or Go plugin files discovered under a functions directory
// (see LoadDir).
package plotfunc

import (
	"fmt"
	"reflect"
	"strings"

	"sqlbatch/pkg/tabular"
)

// tagKey names the struct tag that overrides a field's input name.
const tagKey = "input"

var (
	tableType = reflect.TypeOf((*tabular.Table)(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Descriptor is one registered plot function together with its declared
// required inputs, in field order.
type Descriptor struct {
	// Name identifies the function; the rerun policy and artifact naming
	// convention both key off it.
	Name string

	// Params lists the declared input names in declaration order. The
	// reserved name "output_dir" appears here like any other input.
	Params []string

	// File records where the function came from: the plugin path, or
	// "builtin" for functions registered directly by the host binary.
	File string

	fn      reflect.Value
	inType  reflect.Type
	fields  []int // struct field index per Params entry
	wantPtr bool
}

// Registry holds the plot functions discovered for one batch.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor

	// loading names the plugin file currently registering functions; empty
	// outside LoadDir. loadErrs collects registration failures from the
	// current file, since plugins rarely check Register's return value.
	loading  string
	loadErrs []error
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Descriptor{}}
}

// Register adds fn under name. fn must be func(T) or func(T) error where T is
// a struct (or pointer to struct) whose exported fields are either
// *tabular.Table (a dataset input) or string (a reserved value such as the
// output directory). Anything else is rejected so a malformed function is
// reported at discovery time rather than mid-batch.
func (r *Registry) Register(name string, fn any) (err error) {
	defer func() {
		if err != nil && r.loading != "" {
			r.loadErrs = append(r.loadErrs, err)
		}
	}()
	if name == "" {
		return fmt.Errorf("plotfunc: empty function name")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("plotfunc: %q already registered", name)
	}

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("plotfunc: %q is %T, not a function", name, fn)
	}
	ft := v.Type()
	if ft.NumIn() != 1 {
		return fmt.Errorf("plotfunc: %q must take exactly one struct argument", name)
	}
	if ft.NumOut() > 1 || (ft.NumOut() == 1 && !ft.Out(0).Implements(errorType)) {
		return fmt.Errorf("plotfunc: %q must return nothing or error", name)
	}

	in := ft.In(0)
	wantPtr := in.Kind() == reflect.Pointer
	if wantPtr {
		in = in.Elem()
	}
	if in.Kind() != reflect.Struct {
		return fmt.Errorf("plotfunc: %q argument must be a struct, got %s", name, ft.In(0))
	}

	d := &Descriptor{
		Name:    name,
		File:    r.loading,
		fn:      v,
		inType:  in,
		wantPtr: wantPtr,
	}
	if d.File == "" {
		d.File = "builtin"
	}

	for i := 0; i < in.NumField(); i++ {
		f := in.Field(i)
		if !f.IsExported() {
			continue
		}
		pname := strings.Split(f.Tag.Get(tagKey), ",")[0]
		if pname == "-" {
			continue
		}
		if pname == "" {
			pname = snakeCase(f.Name)
		}
		if f.Type != tableType && f.Type.Kind() != reflect.String {
			return fmt.Errorf("plotfunc: %q input %q must be *tabular.Table or string, got %s",
				name, pname, f.Type)
		}
		d.Params = append(d.Params, pname)
		d.fields = append(d.fields, i)
	}

	r.byName[name] = d
	r.order = append(r.order, d)
	return nil
}

// Descriptors returns all registered functions in registration order. Order
// across plugin files follows directory walk order and must not be relied on.
func (r *Registry) Descriptors() []*Descriptor {
	out := make([]*Descriptor, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// call invokes the function with the populated argument struct, converting a
// panic inside user code into an error so one bad function cannot take down
// the batch.
func (d *Descriptor) call(args reflect.Value) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	if d.wantPtr {
		args = args.Addr()
	}
	out := d.fn.Call([]reflect.Value{args})
	if len(out) == 1 && !out[0].IsNil() {
		err = out[0].Interface().(error)
	}
	return err
}

// snakeCase converts an exported Go field name to its declared input name:
// RevenueTable -> revenue_table, OutputDir -> output_dir.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
