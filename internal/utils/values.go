package utils

import "strings"

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// CopyPtr returns a pointer to a copy of *v, or nil when v is nil.
func CopyPtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	return Ptr(*v)
}

// ValueOr dereferences v, falling back when v is nil.
func ValueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}

// FirstNonEmpty returns the first value that is not blank.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
