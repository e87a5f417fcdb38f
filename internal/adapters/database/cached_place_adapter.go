package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codershubham350/discover-places-backend/internal/domain/entities"
	"github.com/codershubham350/discover-places-backend/internal/domain/providers"
	"github.com/codershubham350/discover-places-backend/internal/domain/repositories"
	"github.com/codershubham350/discover-places-backend/internal/infrastructure/observability"
)

// CachedPlaceAdapter wraps a PlaceRepository with read-through caching of
// single places. Lists are never cached since they change with every
// create and delete.
type CachedPlaceAdapter struct {
	adapter repositories.PlaceRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics

	// After a write the entry is deleted again once this delay has passed.
	// A reader that loaded the old row before the commit and stored it
	// after the first delete is cleared by the second one.
	reinvalidateAfter time.Duration
}

// NewCachedPlaceAdapter creates a new cached place adapter
func NewCachedPlaceAdapter(adapter repositories.PlaceRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.PlaceRepository {
	return &CachedPlaceAdapter{
		adapter:           adapter,
		cache:             cache,
		metrics:           metrics,
		reinvalidateAfter: placeReinvalidateDelay,
	}
}

// 5 minutes
const placeByIDTTL = 300

const placeKeyspace = "place"

const placeReinvalidateDelay = time.Second

func placeCacheKey(id string) string {
	return fmt.Sprintf("place:%s", id)
}

// GetByID retrieves a place by ID with caching
func (a *CachedPlaceAdapter) GetByID(ctx context.Context, id string) (*entities.Place, error) {
	cacheKey := placeCacheKey(id)

	cached, err := a.cache.Get(ctx, cacheKey)
	switch {
	case err == nil:
		var place entities.Place
		if err := json.Unmarshal(cached, &place); err == nil {
			observability.RecordCacheHit(ctx, a.metrics, placeKeyspace)
			return &place, nil
		}
		log.Warn().Err(err).Str("place_id", id).Msg("failed to unmarshal cached place")
	case !errors.Is(err, providers.ErrCacheMiss):
		log.Warn().Err(err).Str("place_id", id).Msg("place cache read failed")
	}
	observability.RecordCacheMiss(ctx, a.metrics, placeKeyspace)

	place, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(place); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, placeByIDTTL); err != nil {
			log.Warn().Err(err).Str("place_id", id).Msg("failed to cache place")
		}
	}
	return place, nil
}

// ListByUser passes through
func (a *CachedPlaceAdapter) ListByUser(ctx context.Context, userID string) ([]*entities.Place, error) {
	return a.adapter.ListByUser(ctx, userID)
}

// CreateForUser passes through. A new id cannot be cached yet.
func (a *CachedPlaceAdapter) CreateForUser(ctx context.Context, place *entities.Place) error {
	return a.adapter.CreateForUser(ctx, place)
}

// Update updates the place and invalidates its cache entry
func (a *CachedPlaceAdapter) Update(ctx context.Context, place *entities.Place) error {
	if err := a.adapter.Update(ctx, place); err != nil {
		return err
	}
	a.invalidate(ctx, place.ID)
	return nil
}

// DeleteForUser deletes the place and invalidates its cache entry
func (a *CachedPlaceAdapter) DeleteForUser(ctx context.Context, placeID, creatorID string) error {
	if err := a.adapter.DeleteForUser(ctx, placeID, creatorID); err != nil {
		return err
	}
	a.invalidate(ctx, placeID)
	return nil
}

func (a *CachedPlaceAdapter) invalidate(ctx context.Context, id string) {
	a.deleteEntry(ctx, id)

	if a.reinvalidateAfter <= 0 {
		return
	}
	detached := context.WithoutCancel(ctx)
	time.AfterFunc(a.reinvalidateAfter, func() {
		a.deleteEntry(detached, id)
	})
}

func (a *CachedPlaceAdapter) deleteEntry(ctx context.Context, id string) {
	if err := a.cache.Delete(ctx, placeCacheKey(id)); err != nil {
		log.Warn().Err(err).Str("place_id", id).Msg("failed to invalidate place cache")
	}
}
