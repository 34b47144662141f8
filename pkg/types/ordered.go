package types

// ordered is a string-keyed map that remembers insertion order.
type ordered[T any] struct {
	keys []string
	m    map[string]T
}

func newOrdered[T any]() ordered[T] {
	return ordered[T]{m: map[string]T{}}
}

func (o *ordered[T]) get(key string) (T, bool) {
	v, ok := o.m[key]
	return v, ok
}

func (o *ordered[T]) has(key string) bool {
	_, ok := o.m[key]
	return ok
}

// set stores v under key. A new key goes to the end; an existing key keeps
// its position.
func (o *ordered[T]) set(key string, v T) {
	if _, ok := o.m[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.m[key] = v
}

// del removes key and reports whether it was present.
func (o *ordered[T]) del(key string) bool {
	if _, ok := o.m[key]; !ok {
		return false
	}
	delete(o.m, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *ordered[T]) len() int {
	return len(o.keys)
}

func (o *ordered[T]) values() []T {
	out := make([]T, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.m[k])
	}
	return out
}
