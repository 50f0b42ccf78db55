//go:build wasm

package internal

import "sync"

var once sync.Once
var globalLoop *Loop

// DefaultLoop returns the single loop of the wasm runtime.
func DefaultLoop() *Loop {
	once.Do(func() {
		globalLoop = NewLoop()
	})

	return globalLoop
}
