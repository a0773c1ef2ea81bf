package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type OccupiedSeatsSource interface {
	OccupiedSeats(ctx context.Context, showID uuid.UUID) (entities.OccupiedSeats, error)
}

// OccupancyCache serves occupied seat maps from Redis, falling back to the source on a miss.
// It is only a read cache: availability decisions always go to Postgres.
type OccupancyCache struct {
	rdb    redis.UniversalClient
	source OccupiedSeatsSource
	ttl    time.Duration
}

func NewOccupancyCache(rdb redis.UniversalClient, source OccupiedSeatsSource, ttl time.Duration) *OccupancyCache {
	if rdb == nil {
		panic("redis client is required")
	}
	if source == nil {
		panic("occupied seats source is required")
	}

	return &OccupancyCache{
		rdb:    rdb,
		source: source,
		ttl:    ttl,
	}
}

func versionKey(showID uuid.UUID) string {
	return "occupied-seats-version:" + showID.String()
}

func occupancyKey(showID uuid.UUID, version string) string {
	return "occupied-seats:" + showID.String() + ":" + version
}

// OccupiedSeats reads the seat map cached under the show's current version. The version is read
// before the source, so a map loaded before an Invalidate is stored under a version nobody reads.
func (c *OccupancyCache) OccupiedSeats(ctx context.Context, showID uuid.UUID) (entities.OccupiedSeats, error) {
	logger := log.FromContext(ctx).WithField("show_id", showID)

	version, err := c.rdb.Get(ctx, versionKey(showID)).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		logger.WithError(err).Warn("Occupied seats cache unavailable")
		return c.source.OccupiedSeats(ctx, showID)
	}

	key := occupancyKey(showID, version)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var seats entities.OccupiedSeats
		if err := json.Unmarshal(cached, &seats); err == nil {
			return seats, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.WithError(err).Warn("Occupied seats cache unavailable")
		return c.source.OccupiedSeats(ctx, showID)
	}

	seats, err := c.source.OccupiedSeats(ctx, showID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(seats)
	if err != nil {
		return nil, fmt.Errorf("could not marshal occupied seats: %w", err)
	}

	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.WithError(err).Warn("Could not cache occupied seats")
	}

	return seats, nil
}

// Invalidate moves the show to a new version; entries of older versions expire with their TTL.
func (c *OccupancyCache) Invalidate(ctx context.Context, showID uuid.UUID) error {
	if err := c.rdb.Incr(ctx, versionKey(showID)).Err(); err != nil {
		return fmt.Errorf("could not invalidate occupied seats of show %s: %w", showID, err)
	}

	return nil
}
