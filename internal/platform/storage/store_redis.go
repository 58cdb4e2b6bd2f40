// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/localmart/internal/platform/constants"
)

// RedisStore implements [Store] on top of Redis.
//
// Every write refreshes the key's TTL so an active tab keeps its session alive while
// an abandoned one expires on its own. A zero TTL stores keys without expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed [Store].
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

/*
Get retrieves the value stored under key.

Description: redis.Nil is translated into (found == false) rather than an error.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - string: Stored value
  - bool: Whether the key exists
  - error: Connectivity errors
*/
func (repository *RedisStore) Get(context context.Context, key string) (string, bool, error) {

	// Namespaced key keeps storage entries apart from anything else in the database
	value, err := repository.client.Get(context, constants.RedisPrefixStorage+key).Result()

	// Handle errors
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis_storage_get_failed: %w", err)
	}

	return value, true, nil
}

/*
Set stores value under key and refreshes its TTL.

Parameters:
  - context: context.Context
  - key: string
  - value: string

Returns:
  - error: Persistence failures
*/
func (repository *RedisStore) Set(context context.Context, key, value string) error {

	// Set the value with TTL (0 means no expiry)
	if err := repository.client.Set(context, constants.RedisPrefixStorage+key, value, repository.ttl).Err(); err != nil {
		return fmt.Errorf("redis_storage_set_failed: %w", err)
	}

	return nil
}

/*
Remove deletes key from Redis.

Parameters:
  - context: context.Context
  - key: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisStore) Remove(context context.Context, key string) error {
	if err := repository.client.Del(context, constants.RedisPrefixStorage+key).Err(); err != nil {
		return fmt.Errorf("redis_storage_remove_failed: %w", err)
	}
	return nil
}
