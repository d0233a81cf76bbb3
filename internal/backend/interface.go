// Package backend builds the entry store selected by DATA_BACKEND and
// attaches the optional AMQP publisher to it.
package backend

import (
	"context"

	"healthdash/internal/amqp"
	"healthdash/internal/store"
)

// CleanupFunc releases what CreateBackend opened.
type CleanupFunc func() error

// BackendResult is what the binaries wire their services from.
type BackendResult struct {
	Backend store.Backend
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher *amqp.Client
	// Cleanup is nil for the memory store without a publisher.
	Cleanup CleanupFunc
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
