package service

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Flatten renders v as "path: value" pairs joined with ", ". Struct fields
// are keyed by their json name in declaration order, list items get a 1-based
// [i] suffix and map keys are sorted, so a map lists its entries
// alphabetically where a struct keeps field order. Nil values and blank
// strings are left out, as are fields tagged json:"-" or prompt:"-". A scalar
// at the root is emitted without a key.
func Flatten(v any) string {
	var parts []string

	flatten(reflect.ValueOf(v), "", func(key, val string) {
		if key == "" {
			parts = append(parts, val)
			return
		}

		parts = append(parts, key+": "+val)
	})

	return strings.Join(parts, ", ")
}

var timeType = reflect.TypeFor[time.Time]()

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

func flatten(v reflect.Value, prefix string, emit func(key, val string)) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return
		}
		v = v.Elem()
	}

	if !v.IsValid() {
		return
	}

	if v.Type() == timeType {
		emit(prefix, v.Interface().(time.Time).Format(time.RFC3339))
		return
	}

	switch v.Kind() {
	case reflect.String:
		if strings.TrimSpace(v.String()) == "" {
			return
		}
		emit(prefix, v.String())

	case reflect.Bool:
		emit(prefix, strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		emit(prefix, strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		emit(prefix, strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32, reflect.Float64:
		emit(prefix, strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()))

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			if s := string(v.Bytes()); strings.TrimSpace(s) != "" {
				emit(prefix, s)
			}
			return
		}

		for i := range v.Len() {
			flatten(v.Index(i), fmt.Sprintf("%s[%d]", prefix, i+1), emit)
		}

	case reflect.Map:
		keys := v.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
		})

		for _, k := range keys {
			flatten(v.MapIndex(k), joinKey(prefix, fmt.Sprint(k.Interface())), emit)
		}

	case reflect.Struct:
		flattenStruct(v, prefix, emit)

	default:
		emit(prefix, fmt.Sprint(v.Interface()))
	}
}

func flattenStruct(v reflect.Value, prefix string, emit func(key, val string)) {
	t := v.Type()

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("prompt") == "-" {
			continue
		}

		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			continue
		}

		// Untagged embedded structs are inlined like encoding/json does
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			flattenStruct(v.Field(i), prefix, emit)
			continue
		}

		if name == "" {
			name = f.Name
		}

		flatten(v.Field(i), joinKey(prefix, name), emit)
	}
}
