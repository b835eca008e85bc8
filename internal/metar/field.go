package metar

import "fmt"

// Presence distinguishes a reported value from a slash-run placeholder and
// from a group that is missing from the report entirely.
type Presence uint8

const (
	// Absent means the group was not in the report.
	Absent Presence = iota
	// Undefined means the group was reported as a run of '/' characters.
	Undefined
	// Present means the group carried a value.
	Present
)

func (p Presence) String() string {
	switch p {
	case Undefined:
		return "undefined"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Field holds a value that a report may carry, mark as unknown with slashes,
// or leave out. The zero value is Absent.
type Field[T any] struct {
	presence Presence
	value    T
}

// Value returns a present field holding v.
func Value[T any](v T) Field[T] {
	return Field[T]{presence: Present, value: v}
}

// Unknown returns a field that was reported but illegible ("///").
func Unknown[T any]() Field[T] {
	return Field[T]{presence: Undefined}
}

// Presence reports which of the three states the field is in.
func (f Field[T]) Presence() Presence { return f.presence }

// Get returns the value and true when the field is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.presence == Present
}

func (f Field[T]) IsPresent() bool   { return f.presence == Present }
func (f Field[T]) IsUndefined() bool { return f.presence == Undefined }
func (f Field[T]) IsAbsent() bool    { return f.presence == Absent }

// Reported is true for both present and undefined fields.
func (f Field[T]) Reported() bool { return f.presence != Absent }

func (f Field[T]) String() string {
	switch f.presence {
	case Present:
		return fmt.Sprint(f.value)
	case Undefined:
		return "//"
	default:
		return ""
	}
}
