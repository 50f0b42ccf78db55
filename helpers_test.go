package vortex

import "testing"

// define creates a store driven by its own loop, drained by hand.
func define[S any](t *testing.T, setup func(api *API) S, opts ...Options[S]) (*Store[S], *Loop) {
	t.Helper()

	var o Options[S]
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Name == "" {
		o.Name = t.Name()
	}

	loop := NewLoop()
	o.Scheduler = loop

	return DefineStore(setup, o), loop
}
