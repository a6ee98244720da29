// Package viewcache caches bias popovers in Redis. Entries are versioned per
// author so an endorsement change invalidates every viewer's copy with one
// INCR instead of a key scan.
package viewcache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/biasnet/influence/internal/database/service"
	"github.com/biasnet/influence/internal/database/types"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// PopoverKeyPrefix identifies cached popover entries.
	PopoverKeyPrefix = "bias_popover:"
	// VersionKeyPrefix identifies the per-author version counters.
	VersionKeyPrefix = "bias_popover_version:"

	defaultTTL = 5 * time.Minute
)

var _ service.PopoverCache = (*PopoverCache)(nil)

// PopoverCache is a read-through cache for GetUserBiasesForCategory. Redis
// failures never fail a read; the loader is used instead.
type PopoverCache struct {
	client rueidis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// New creates a popover cache on client. A non-positive ttl uses the default.
func New(client rueidis.Client, ttl time.Duration, logger *zap.Logger) *PopoverCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &PopoverCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("popover_cache"),
	}
}

// Popover returns the cached popover rows or calls load and caches the result.
// Concurrent misses for the same key share one load.
func (c *PopoverCache) Popover(
	ctx context.Context, authorID, contextGroupID, currentUserID uuid.UUID,
	load func(context.Context) ([]*types.UserBiasForPopover, error),
) ([]*types.UserBiasForPopover, error) {
	version, err := c.version(ctx, authorID)
	if err != nil {
		c.logger.Warn("Failed to read popover version, bypassing cache",
			zap.String("authorID", authorID.String()),
			zap.Error(err))
		return load(ctx)
	}

	key := PopoverKey(authorID, contextGroupID, currentUserID, version)

	rows, ok := c.get(ctx, key)
	if ok {
		return rows, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// The load is shared, so one caller going away must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)

		rows, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = make([]*types.UserBiasForPopover, 0)
		}

		c.set(loadCtx, key, rows)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]*types.UserBiasForPopover), nil //nolint:forcetypeassert // only rows are stored
}

// InvalidateAuthor bumps the author's version so existing entries are no
// longer read. Old entries expire on their own.
func (c *PopoverCache) InvalidateAuthor(ctx context.Context, authorID uuid.UUID) error {
	key := VersionKeyPrefix + authorID.String()

	if err := c.client.Do(ctx, c.client.B().Incr().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to bump popover version for %s: %w", authorID, err)
	}

	c.logger.Debug("Invalidated popovers", zap.String("authorID", authorID.String()))
	return nil
}

// PopoverKey builds the cache key of one popover.
func PopoverKey(authorID, contextGroupID, currentUserID uuid.UUID, version int64) string {
	return PopoverKeyPrefix + authorID.String() + ":" + contextGroupID.String() + ":" +
		currentUserID.String() + ":v" + strconv.FormatInt(version, 10)
}

// version reads the author's version. A missing counter is version 0.
func (c *PopoverCache) version(ctx context.Context, authorID uuid.UUID) (int64, error) {
	key := VersionKeyPrefix + authorID.String()

	version, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsInt64()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, nil
		}
		return 0, err
	}

	return version, nil
}

func (c *PopoverCache) get(ctx context.Context, key string) ([]*types.UserBiasForPopover, bool) {
	data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			c.logger.Warn("Failed to read popover from Redis",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil, false
	}

	var rows []*types.UserBiasForPopover
	if err := sonic.Unmarshal(data, &rows); err != nil {
		c.logger.Warn("Discarding unreadable popover entry",
			zap.String("key", key),
			zap.Error(err))
		return nil, false
	}

	return rows, true
}

func (c *PopoverCache) set(ctx context.Context, key string, rows []*types.UserBiasForPopover) {
	data, err := sonic.Marshal(rows)
	if err != nil {
		c.logger.Warn("Failed to encode popover", zap.String("key", key), zap.Error(err))
		return
	}

	err = c.client.Do(ctx, c.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Ex(c.ttl).Build()).Error()
	if err != nil {
		c.logger.Warn("Failed to store popover in Redis",
			zap.String("key", key),
			zap.Error(err))
	}
}
