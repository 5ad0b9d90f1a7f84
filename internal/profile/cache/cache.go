// Package cache keeps serialized public projections in Redis so the public
// read path avoids a store round-trip. Only the public view is cached; full
// documents always come from the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"warden/internal/profile/models"
	"warden/pkg/sentinel"
)

const publicKeyPrefix = "profile:public:"

// Public is a Redis-backed cache of public profile projections.
type Public struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPublic(client *redis.Client, ttl time.Duration) *Public {
	return &Public{client: client, ttl: ttl}
}

// Get returns the cached public projection, or sentinel.ErrNotFound on a miss.
func (c *Public) Get(ctx context.Context, profileID string) (*models.PublicProfile, error) {
	raw, err := c.client.Get(ctx, publicKeyPrefix+profileID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var public models.PublicProfile
	if err := json.Unmarshal(raw, &public); err != nil {
		return nil, fmt.Errorf("decode cached projection: %w", err)
	}
	return &public, nil
}

// Set stores the public projection under the configured TTL.
func (c *Public) Set(ctx context.Context, profileID string, public models.PublicProfile) error {
	raw, err := json.Marshal(public)
	if err != nil {
		return fmt.Errorf("encode projection: %w", err)
	}
	if err := c.client.Set(ctx, publicKeyPrefix+profileID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached projection after a mutation or delete.
func (c *Public) Invalidate(ctx context.Context, profileID string) error {
	if err := c.client.Del(ctx, publicKeyPrefix+profileID).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
