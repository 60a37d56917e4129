package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smartorder/internal/models"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetMenuItem retrieves a cached menu item. Returns nil without error on a
// cache miss.
func (c *Client) GetMenuItem(ctx context.Context, id int64) (*models.MenuItem, error) {
	key := fmt.Sprintf("menu:%d", id)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var item models.MenuItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to decode cached menu item: %w", err)
	}
	return &item, nil
}

// SetMenuItem caches a menu item with a TTL. The TTL has to stay short so
// price reads stay effectively live.
func (c *Client) SetMenuItem(ctx context.Context, item *models.MenuItem, ttl time.Duration) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, fmt.Sprintf("menu:%d", item.ID), raw, ttl).Err()
}

// AddActiveTable adds a table to the active-tables mirror set
func (c *Client) AddActiveTable(ctx context.Context, tableNumber string) error {
	return c.rdb.SAdd(ctx, "active-tables", tableNumber).Err()
}

// RemoveActiveTable removes a table from the active-tables mirror set
func (c *Client) RemoveActiveTable(ctx context.Context, tableNumber string) error {
	return c.rdb.SRem(ctx, "active-tables", tableNumber).Err()
}

// ActiveTables retrieves the active-tables mirror set
func (c *Client) ActiveTables(ctx context.Context) ([]string, error) {
	return c.rdb.SMembers(ctx, "active-tables").Result()
}
