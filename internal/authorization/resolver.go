package authorization

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/rbac-service/internal/core/events"
)

// SnapshotStore loads fresh snapshots from the database.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, userID int64) (*Snapshot, error)
}

// SnapshotCache keeps recently loaded snapshots keyed by generation. Invalidate starts a new
// generation, so a snapshot loaded before an invalidation can never be served after it.
type SnapshotCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation, userID int64) (*Snapshot, bool, error)
	Set(ctx context.Context, generation int64, snapshot *Snapshot) error
	Invalidate(ctx context.Context) error
}

type Resolver struct {
	store   SnapshotStore
	cache   SnapshotCache
	metrics *Metrics
	logger  *slog.Logger
}

// NewResolver builds a resolver. cache and metrics may be nil.
func NewResolver(store SnapshotStore, cache SnapshotCache, metrics *Metrics, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Authorize reports whether userID may use permission. Storage failures are errors, never a deny.
func (r *Resolver) Authorize(ctx context.Context, userID int64, permission string) (bool, error) {
	snapshot, err := r.snapshot(ctx, userID)
	if err != nil {
		r.metrics.observe(permission, resultError)
		return false, fmt.Errorf("authorize user %d: %w", userID, err)
	}

	allowed := Decide(snapshot, permission)
	if allowed {
		r.metrics.observe(permission, resultAllow)
	} else {
		r.metrics.observe(permission, resultDeny)
		r.logger.Debug("permission denied", "user_id", userID, "permission", permission, "role", snapshot.RoleName)
	}
	return allowed, nil
}

func (r *Resolver) snapshot(ctx context.Context, userID int64) (*Snapshot, error) {
	if r.cache == nil {
		return r.store.LoadSnapshot(ctx, userID)
	}

	generation, err := r.cache.Generation(ctx)
	if err != nil {
		r.logger.Warn("snapshot cache unavailable", "error", err)
		return r.store.LoadSnapshot(ctx, userID)
	}

	cached, ok, err := r.cache.Get(ctx, generation, userID)
	if err != nil {
		r.logger.Warn("snapshot cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return cached, nil
	}

	snapshot, err := r.store.LoadSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, generation, snapshot); err != nil {
		r.logger.Warn("snapshot cache write failed", "user_id", userID, "error", err)
	}
	return snapshot, nil
}

// Subscribe drops cached snapshots whenever roles, links or user assignments change.
func (r *Resolver) Subscribe(bus *events.EventBus) {
	if r.cache == nil {
		return
	}
	bus.SubscribeAll(func(ctx context.Context, event events.Event) error {
		r.logger.Debug("invalidating authorization snapshots", "event_type", event.EventType())
		return r.cache.Invalidate(ctx)
	}, events.AccessChangedTypes...)
}
