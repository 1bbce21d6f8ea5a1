package utils

// Ptr boxes v. Optional filter bounds and nullable detail columns are
// pointers, so literals in seeds and tests go through here.
func Ptr[T any](v T) *T {
	return &v
}

// Val reads an optional field, treating nil as the zero value.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
