package vortex

import "github.com/AnatoleLucet/vortex/internal"

// NewEffect registers a side effect on the store being set up.
// fn never runs synchronously: it first runs on the next flush of the store,
// then once per flush after any unit it read has changed.
func NewEffect(api *API, fn func()) {
	e := internal.NewEffect(api.ctx, api.batcher, fn)
	api.effects = append(api.effects, e)
}
