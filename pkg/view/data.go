package view

import "maps"

// WrappedContentKey is the reserved data key under which Wrap exposes the
// wrapped template's output to the layout.
const WrappedContentKey = "wrapped_content"

// Data is the render context handed to a single template evaluation.
type Data map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty, non-nil map.
func (d Data) Clone() Data {
	if d == nil {
		return Data{}
	}
	return maps.Clone(d)
}

// Value returns the value stored under key.
func (d Data) Value(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d[key]
	return v, ok
}

// AsData converts loosely typed template arguments into Data. It accepts Data,
// map[string]any and nil; anything else reports false.
func AsData(value any) (Data, bool) {
	switch v := value.(type) {
	case nil:
		return Data{}, true
	case Data:
		return v, true
	case map[string]any:
		return Data(v), true
	default:
		return nil, false
	}
}
