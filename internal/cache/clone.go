package cache

// Cloner is implemented by values that know how to deep copy themselves.
type Cloner interface {
	Clone() any
}

// Clone returns a deep copy of v. Values implementing Cloner copy themselves;
// map[string]any and []any trees are copied recursively. Everything else is
// returned as is and must be treated as immutable by callers.
func Clone(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Cloner:
		return t.Clone()
	case map[string]any:
		if t == nil {
			return t
		}
		dup := make(map[string]any, len(t))
		for k, item := range t {
			dup[k] = Clone(item)
		}
		return dup
	case []any:
		if t == nil {
			return t
		}
		dup := make([]any, len(t))
		for i, item := range t {
			dup[i] = Clone(item)
		}
		return dup
	case map[string]string:
		if t == nil {
			return t
		}
		dup := make(map[string]string, len(t))
		for k, item := range t {
			dup[k] = item
		}
		return dup
	case []byte:
		if t == nil {
			return t
		}
		return append([]byte(nil), t...)
	default:
		return v
	}
}
