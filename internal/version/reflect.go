package version

import (
	"fmt"
	"reflect"
	"sync"
)

// FieldSpec is one entry of a type's field_compat table: the wire key
// (from the `json` tag) and its compatibility rule (from the `compat`
// tag, defaulting to Always when absent).
type FieldSpec struct {
	Index  int
	Key    string
	Compat Compat
}

var fieldCompatCache sync.Map // reflect.Type -> []FieldSpec

// FieldCompat returns (and caches) the field_compat table for t, built
// by reflecting over `json`/`compat` struct tags. t must be a struct
// type whose fields are string, bool, *string, or *bool.
func FieldCompat(t reflect.Type) ([]FieldSpec, error) {
	if cached, ok := fieldCompatCache.Load(t); ok {
		return cached.([]FieldSpec), nil
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("version.FieldCompat: %s is not a struct", t)
	}

	var specs []FieldSpec
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		jsonTag := f.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}
		key := jsonTag
		for j, c := range jsonTag {
			if c == ',' {
				key = jsonTag[:j]
				break
			}
		}
		compat := Compat{Kind: Always}
		if ct := f.Tag.Get("compat"); ct != "" {
			parsed, err := ParseCompatTag(ct)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			compat = parsed
		}
		specs = append(specs, FieldSpec{Index: i, Key: key, Compat: compat})
	}

	fieldCompatCache.Store(t, specs)
	return specs, nil
}

// fieldStringValue returns (value, isSet) for a field that is either a
// string, bool, *string, or *bool.
func fieldStringValue(fv reflect.Value) (string, bool) {
	switch fv.Kind() {
	case reflect.Ptr:
		if fv.IsNil() {
			return "", false
		}
		return fieldStringValue(fv.Elem())
	case reflect.String:
		s := fv.String()
		return s, s != ""
	case reflect.Bool:
		if fv.Bool() {
			return "true", true
		}
		return "false", true
	default:
		return fmt.Sprintf("%v", fv.Interface()), true
	}
}

// ToVersionedMap serializes value to a flat map[string]string, omitting
// every field whose compatibility rule rejects v, per §4.8.
func ToVersionedMap(v Version, value any) (map[string]string, error) {
	rv := reflect.Indirect(reflect.ValueOf(value))
	specs, err := FieldCompat(rv.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		fv := rv.Field(spec.Index)
		s, isSet := fieldStringValue(fv)
		if !isSet {
			continue
		}
		if !spec.Compat.Accepts(v) {
			continue
		}
		out[spec.Key] = s
	}
	return out, nil
}

// ValidateVersion returns a diagnostic string for every field that is
// set but incompatible with v.
func ValidateVersion(v Version, value any) ([]string, error) {
	rv := reflect.Indirect(reflect.ValueOf(value))
	specs, err := FieldCompat(rv.Type())
	if err != nil {
		return nil, err
	}

	var errs []string
	for _, spec := range specs {
		fv := rv.Field(spec.Index)
		_, isSet := fieldStringValue(fv)
		if !isSet {
			continue
		}
		if !spec.Compat.Accepts(v) {
			errs = append(errs, fmt.Sprintf("field %q is not valid at version %s", spec.Key, v))
		}
	}
	return errs, nil
}
