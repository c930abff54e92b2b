// SPDX-License-Identifier: MPL-2.0

package npmpublish

// Optional is a value that is either explicitly set or absent. The zero value
// is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Set stores v and marks the value as present.
func (o *Optional[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Clear marks the value as absent.
func (o *Optional[T]) Clear() {
	var zero T
	o.value = zero
	o.set = false
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether the value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Resolve returns own's value when it is set, otherwise the value currently
// produced by def. def is consulted on every call so later changes to the
// default propagate until own is explicitly set.
func Resolve[T any](own Optional[T], def func() T) T {
	if v, ok := own.Get(); ok {
		return v
	}
	if def == nil {
		var zero T
		return zero
	}
	return def()
}
