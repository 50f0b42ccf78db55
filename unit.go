package vortex

// Kind discriminates the reactive units a store knows how to unwrap.
type Kind int

const (
	KindReactive Kind = iota + 1
	KindComputed
	KindQuery
)

func (k Kind) String() string {
	switch k {
	case KindReactive:
		return "reactive"
	case KindComputed:
		return "computed"
	case KindQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Unit is a reactive field of a store: a *Reactive, *Computed or *Query.
// The interface is sealed, only this package implements it.
type Unit interface {
	Kind() Kind

	// current value, without tracking
	value() any

	// subscribe to changes, ignoring the value
	watch(fn func()) (unsubscribe func())
}

// Persistable is implemented by units that can be saved and restored,
// see the persist plugin.
type Persistable interface {
	// PersistValue returns the value to save.
	PersistValue() any

	// RestoreJSON sets the unit from a previously saved value.
	RestoreJSON(data []byte) error
}

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}
