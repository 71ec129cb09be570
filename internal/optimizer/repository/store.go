package repository

import (
	"context"

	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
)

// SessionStore keeps uploaded Dockerfiles keyed by session ID for the
// lifetime of the process.
type SessionStore interface {
	// Put creates or replaces the session. Any optimized text is dropped.
	Put(ctx context.Context, id, raw string) error
	// Get returns domain.ErrSessionNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// SetOptimized overwrites the optimized text of an existing session.
	SetOptimized(ctx context.Context, id, optimized string) error
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	// Close ends the store lifetime. Sessions are gone afterwards.
	Close(ctx context.Context) error
}
