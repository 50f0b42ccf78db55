package vortex

import (
	"log/slog"

	"github.com/AnatoleLucet/vortex/di"
	"github.com/AnatoleLucet/vortex/internal"
)

// API binds unit constructors to one store. It is handed to the setup
// function of DefineStore and should not be kept around after setup.
type API struct {
	ctx       *internal.Context
	batcher   *internal.Batcher
	scheduler Scheduler

	name   string
	di     *di.Container
	logger *slog.Logger

	effects []*internal.Effect
}

// DI returns the container passed with Options.DI, or an empty one.
func (a *API) DI() *di.Container {
	return a.di
}

// Name returns the name of the store being set up.
func (a *API) Name() string {
	return a.name
}

// Logger returns the store logger.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

// Untrack runs fn without tracking the units it reads.
func (a *API) Untrack(fn func()) {
	a.ctx.Untrack(fn)
}
