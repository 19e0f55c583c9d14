package script

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/reusee/starlarkutil"
	"go.starlark.net/starlark"

	"github.com/goliatone/go-viewrender/pkg/view"
)

func toStarlarkValue(v any) (starlark.Value, error) {
	switch v := v.(type) {

	case nil:
		return starlark.None, nil
	case starlark.Value:
		return v, nil
	case view.Helper:
		return newHelperValue("", v, nil), nil

	case bool:
		return starlark.Bool(v), nil
	case []byte:
		return starlark.Bytes(v), nil
	case string:
		return starlark.String(v), nil

	case int:
		return starlark.MakeInt(v), nil
	case int64:
		return starlark.MakeInt64(v), nil
	case uint64:
		return starlark.MakeUint64(v), nil
	case float64:
		return starlark.Float(v), nil

	case []any:
		elems := make([]starlark.Value, len(v))
		for i, e := range v {
			converted, err := toStarlarkValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = converted
		}
		return starlark.NewList(elems), nil

	case map[string]any:
		return dictFromMap(v)
	case view.Data:
		return dictFromMap(v)
	}

	value := reflect.ValueOf(v)
	switch value.Kind() {

	case reflect.Bool:
		return starlark.Bool(value.Bool()), nil
	case reflect.String:
		return starlark.String(value.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return starlark.MakeInt64(value.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return starlark.MakeUint64(value.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return starlark.Float(value.Float()), nil

	case reflect.Slice, reflect.Array:
		elems := make([]starlark.Value, value.Len())
		for i := range elems {
			converted, err := toStarlarkValue(value.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			elems[i] = converted
		}
		return starlark.NewList(elems), nil

	case reflect.Map:
		d := starlark.NewDict(value.Len())
		iter := value.MapRange()
		for iter.Next() {
			key, err := toStarlarkValue(iter.Key().Interface())
			if err != nil {
				return nil, err
			}
			val, err := toStarlarkValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(key, val); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Struct:
		typ := value.Type()
		d := starlark.NewDict(value.NumField())
		for i := range value.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			val, err := toStarlarkValue(value.Field(i).Interface())
			if err != nil {
				return nil, err
			}
			if err := d.SetKey(starlark.String(field.Name), val); err != nil {
				return nil, err
			}
		}
		return d, nil

	case reflect.Pointer, reflect.Interface:
		elem := value.Elem()
		if !elem.IsValid() {
			return starlark.None, nil
		}
		return toStarlarkValue(elem.Interface())

	case reflect.Func:
		return starlarkutil.MakeFunc("", value.Interface()), nil

	}

	return nil, fmt.Errorf("unsupported type for starlark: %T", v)
}

func dictFromMap(m map[string]any) (*starlark.Dict, error) {
	d := starlark.NewDict(len(m))
	for k, val := range m {
		converted, err := toStarlarkValue(val)
		if err != nil {
			return nil, err
		}
		if err := d.SetKey(starlark.String(k), converted); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func fromStarlarkValue(v starlark.Value) (any, error) {
	switch v := v.(type) {

	case nil, starlark.NoneType:
		return nil, nil
	case starlark.Bool:
		return bool(v), nil
	case starlark.String:
		return string(v), nil
	case starlark.Bytes:
		return []byte(v), nil
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		return v.String(), nil
	case starlark.Float:
		return float64(v), nil
	case *helperValue:
		return v.helper, nil

	case *starlark.List:
		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			elem, err := fromStarlarkValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, 0, len(v))
		for _, e := range v {
			elem, err := fromStarlarkValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil

	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				return nil, fmt.Errorf("dict key must be a string, got %s", item[0].Type())
			}
			val, err := fromStarlarkValue(item[1])
			if err != nil {
				return nil, err
			}
			out[key] = val
		}
		return out, nil
	}

	return nil, fmt.Errorf("unsupported starlark value %s", v.Type())
}

// helperValue exposes a view helper's exported methods to Starlark. Methods
// are reachable by their Go name or its snake_case form, and a method that
// returns the helper itself returns the same Starlark value so calls chain.
type helperValue struct {
	key    string
	helper view.Helper
	// fail records method errors before Starlark wraps them.
	fail func(error) error
}

var _ starlark.HasAttrs = (*helperValue)(nil)

func newHelperValue(key string, helper view.Helper, fail func(error) error) *helperValue {
	return &helperValue{key: key, helper: helper, fail: fail}
}

func (h *helperValue) String() string {
	if h.key == "" {
		return fmt.Sprintf("<helper %T>", h.helper)
	}
	return fmt.Sprintf("<helper %s>", h.key)
}

func (h *helperValue) Type() string          { return "helper" }
func (h *helperValue) Freeze()               {}
func (h *helperValue) Truth() starlark.Bool  { return starlark.True }
func (h *helperValue) Hash() (uint32, error) { return 0, errors.New("unhashable type: helper") }

func (h *helperValue) AttrNames() []string {
	typ := reflect.TypeOf(h.helper)
	names := make([]string, 0, typ.NumMethod())
	for i := range typ.NumMethod() {
		names = append(names, snakeCase(typ.Method(i).Name))
	}
	sort.Strings(names)
	return names
}

func (h *helperValue) Attr(name string) (starlark.Value, error) {
	method := reflect.ValueOf(h.helper).MethodByName(camelCase(name))
	if !method.IsValid() {
		method = reflect.ValueOf(h.helper).MethodByName(name)
	}
	if !method.IsValid() {
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		return h.call(b.Name(), method, args)
	}), nil
}

func (h *helperValue) call(name string, method reflect.Value, args starlark.Tuple) (starlark.Value, error) {
	typ := method.Type()
	if typ.IsVariadic() || typ.NumIn() != len(args) {
		return nil, fmt.Errorf("%s: want %d arguments, got %d", name, typ.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		goValue, err := fromStarlarkValue(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		want := typ.In(i)
		if goValue == nil {
			in[i] = reflect.Zero(want)
			continue
		}
		rv := reflect.ValueOf(goValue)
		if !rv.Type().ConvertibleTo(want) {
			return nil, fmt.Errorf("%s: argument %d: cannot use %s as %s", name, i+1, arg.Type(), want)
		}
		in[i] = rv.Convert(want)
	}

	out := method.Call(in)
	if n := len(out); n > 0 && typ.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			if h.fail != nil {
				return nil, h.fail(err)
			}
			return nil, err
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return starlark.None, nil
	case 1:
		result := out[0].Interface()
		if helper, ok := result.(view.Helper); ok && helper != nil {
			if sameHelper(helper, h.helper) {
				return h, nil
			}
			return newHelperValue("", helper, h.fail), nil
		}
		return toStarlarkValue(result)
	default:
		return nil, fmt.Errorf("%s: unsupported method with %d results", name, len(out))
	}
}

func sameHelper(a, b view.Helper) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	return ra.Kind() == reflect.Pointer && ra.Type() == rb.Type() && ra.Pointer() == rb.Pointer()
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// camelCase maps set_scheme to SetScheme.
func camelCase(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// snakeCase maps SetScheme to set_scheme.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
