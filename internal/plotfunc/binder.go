package plotfunc

import (
	"reflect"

	"sqlbatch/pkg/tabular"
)

// Bind resolves a descriptor's declared inputs against the reserved values
// and the loaded datasets, in that order. On success it returns a closure
// that invokes the function with the bound arguments. If any input cannot be
// resolved the function must not be invoked; the unresolved names are
// returned in declaration order and the closure is nil.
//
// Reserved values take precedence over datasets of the same name, and only
// bind to string fields; dataset keys only bind to *tabular.Table fields. A
// name present on the wrong side is reported as missing rather than silently
// substituted.
func Bind(d *Descriptor, datasets map[string]*tabular.Table, reserved map[string]string) (func() error, []string) {
	args := reflect.New(d.inType).Elem()

	var missing []string
	for i, name := range d.Params {
		field := args.Field(d.fields[i])
		if field.Kind() == reflect.String {
			if v, ok := reserved[name]; ok {
				field.SetString(v)
				continue
			}
			missing = append(missing, name)
			continue
		}
		// *tabular.Table field: reserved names never carry tables, and a
		// reserved name shadows any dataset that happens to share it.
		if _, ok := reserved[name]; ok {
			missing = append(missing, name)
			continue
		}
		if t, ok := datasets[name]; ok {
			field.Set(reflect.ValueOf(t))
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return nil, missing
	}
	return func() error { return d.call(args) }, nil
}
