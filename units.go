package cmfast

import (
	"fmt"
	"reflect"
)

// FieldUnits returns the `units:"..."` struct tag of field name on box
// (spec.md §3 "every per-cell quantity... has a well-defined physical
// unit stated in its type"), mirroring the teacher's reflect-based
// getUnits helper.
func FieldUnits(box interface{}, name string) (string, error) {
	t := reflect.TypeOf(box)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	f, ok := t.FieldByName(name)
	if !ok {
		return "", fmt.Errorf("cmfast: unknown field %q on %s", name, t.Name())
	}
	return f.Tag.Get("units"), nil
}
