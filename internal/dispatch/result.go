package dispatch

// Source tells where a conversion result came from.
type Source int

const (
	// SourceRemote means the conversion service produced the value.
	SourceRemote Source = iota
	// SourceLocal means the local codec produced the value after the remote
	// attempt failed or was skipped.
	SourceLocal
	// SourceUnavailable means no conversion happened and the value is an
	// empty placeholder.
	SourceUnavailable
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceLocal:
		return "local"
	case SourceUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of a dispatched conversion.
type Result[T any] struct {
	Value  T
	Source Source

	// Err is the remote failure that forced a fallback, if any.
	Err error
}

// Available reports whether Value holds a real conversion. An unavailable
// result carries an empty placeholder that must not be mistaken for an
// empty input.
func (r Result[T]) Available() bool {
	return r.Source != SourceUnavailable
}

// Degraded reports whether the remote attempt failed.
func (r Result[T]) Degraded() bool {
	return r.Err != nil
}
