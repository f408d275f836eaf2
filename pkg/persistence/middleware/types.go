// Package middleware decorates checkpoint stores: encryption at rest and
// redaction of personal data before it is persisted.
package middleware

import "github.com/whitehatjr1001/cine-brain/pkg/ports"

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore

// Chain wraps store so that the first middleware sees calls first.
func Chain(store ports.CheckpointStore, mws ...Middleware) ports.CheckpointStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
