package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const lookupKeyPrefix = "helpdesk:lookup:"

type cachedLookupRepository struct {
	next   LookupRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLookupRepository serves lookup tables through Redis. Cache errors
// are logged and the read falls through to next. With no client or a
// non-positive ttl, next is returned unchanged.
func NewCachedLookupRepository(next LookupRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) LookupRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedLookupRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedLookupRepository) List(ctx context.Context, table domain.LookupTable) ([]domain.Lookup, error) {
	key := lookupKeyPrefix + string(table)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var items []domain.Lookup
		if err := json.Unmarshal(raw, &items); err == nil {
			return items, nil
		}
		r.logger.Warn("discarding malformed lookup cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
	}

	items, err := r.next.List(ctx, table)
	if err != nil {
		return nil, err
	}

	raw, err = json.Marshal(items)
	if err != nil {
		return items, nil
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}
