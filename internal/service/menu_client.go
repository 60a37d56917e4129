package service

import (
	"context"
	"time"

	"smartorder/internal/models"
	"smartorder/internal/util"

	"go.uber.org/zap"
)

// MenuCache is a best-effort read cache in front of the menu table
type MenuCache interface {
	GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error)
	SetMenuItem(ctx context.Context, item *models.MenuItem, ttl time.Duration) error
}

// MenuClient resolves menu items through a short-TTL read-through cache.
// Cache failures fall back to the store so price reads never break on a
// cache outage.
type MenuClient struct {
	store  MenuLookup
	cache  MenuCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewMenuClient creates a new menu client. cache may be nil to read straight
// from the store.
func NewMenuClient(store MenuLookup, cache MenuCache, ttl time.Duration) *MenuClient {
	return &MenuClient{
		store:  store,
		cache:  cache,
		ttl:    ttl,
		logger: util.GetLogger(),
	}
}

// GetMenuItem retrieves a menu item, preferring the cache
func (c *MenuClient) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	if c.cache != nil {
		item, err := c.cache.GetMenuItem(ctx, id)
		if err != nil {
			c.logger.Warn("Menu cache read failed, falling back to store",
				zap.Int64("menu_item_id", id), zap.Error(err))
		} else if item != nil {
			util.MenuCacheHits.Inc()
			return item, nil
		}
	}

	util.MenuCacheMisses.Inc()
	item, err := c.store.GetMenuItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetMenuItem(ctx, item, c.ttl); err != nil {
			c.logger.Warn("Menu cache write failed",
				zap.Int64("menu_item_id", id), zap.Error(err))
		}
	}
	return item, nil
}
