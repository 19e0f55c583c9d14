package pongo

import (
	"fmt"
	"reflect"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-viewrender/pkg/view"
)

var (
	valueType = reflect.TypeOf((*pongo2.Value)(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// helperMap exposes the exported methods of a helper by name, which pongo2
// resolves for helper("key").Method(...) calls. The helper itself is kept
// under the empty key, which no template identifier can reach.
type helperMap map[string]any

func (m helperMap) helper() view.Helper {
	helper, _ := m[""].(view.Helper)
	return helper
}

// helperMethods builds the helperMap for helper. pongo2 keeps only the text of
// a function's error, so method errors are recorded on scope first. A method
// returning the helper itself yields the same map so calls keep chaining.
func helperMethods(scope *view.Scope, helper view.Helper) helperMap {
	rv := reflect.ValueOf(helper)
	typ := rv.Type()

	methods := make(helperMap, typ.NumMethod()+1)
	methods[""] = helper
	for i := range typ.NumMethod() {
		name := typ.Method(i).Name
		methods[name] = wrapMethod(scope, helper, methods, name, rv.Method(i))
	}
	return methods
}

func wrapMethod(scope *view.Scope, helper view.Helper, methods helperMap, name string, method reflect.Value) any {
	mt := method.Type()
	in := make([]reflect.Type, mt.NumIn())
	for i := range in {
		in[i] = mt.In(i)
	}
	fnType := reflect.FuncOf(in, []reflect.Type{valueType, errorType}, mt.IsVariadic())

	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		var out []reflect.Value
		if mt.IsVariadic() {
			out = method.CallSlice(args)
		} else {
			out = method.Call(args)
		}

		if n := len(out); n > 0 && mt.Out(n-1) == errorType {
			if err, _ := out[n-1].Interface().(error); err != nil {
				return results(nil, scope.Fail(err))
			}
			out = out[:n-1]
		}

		switch len(out) {
		case 0:
			return results(pongo2.AsValue(nil), nil)
		case 1:
			result := out[0].Interface()
			if next, ok := result.(view.Helper); ok && next != nil {
				if sameHelper(next, helper) {
					return results(pongo2.AsValue(methods), nil)
				}
				return results(pongo2.AsValue(helperMethods(scope, next)), nil)
			}
			return results(pongo2.AsValue(result), nil)
		default:
			return results(nil, fmt.Errorf("pongo: helper method %s returns %d values", name, len(out)))
		}
	}).Interface()
}

// unwrapHelpers replaces helperMaps in data with their helpers so partials and
// layouts receive the values the template was given.
func unwrapHelpers(data view.Data) view.Data {
	var out view.Data
	for key, value := range data {
		m, ok := value.(helperMap)
		if !ok {
			continue
		}
		if out == nil {
			out = data.Clone()
		}
		out[key] = m.helper()
	}
	if out == nil {
		return data
	}
	return out
}

func results(value *pongo2.Value, err error) []reflect.Value {
	if value == nil {
		value = pongo2.AsValue(nil)
	}
	errValue := reflect.New(errorType).Elem()
	if err != nil {
		errValue.Set(reflect.ValueOf(err))
	}
	return []reflect.Value{reflect.ValueOf(value), errValue}
}

func sameHelper(a, b view.Helper) bool {
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	return ra.Kind() == reflect.Pointer && ra.Type() == rb.Type() && ra.Pointer() == rb.Pointer()
}
