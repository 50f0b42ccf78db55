//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var loops sync.Map

// DefaultLoop returns the loop bound to the calling goroutine, creating it on
// first use. Loops are never released, so every goroutine that calls it keeps
// its loop for the life of the process.
func DefaultLoop() *Loop {
	gid := goid.Get()

	if l, ok := loops.Load(gid); ok {
		return l.(*Loop)
	}

	l := NewLoop()
	loops.Store(gid, l)
	return l
}
