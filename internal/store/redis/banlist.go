// Package redis keeps the ban list in a Redis set so several chat servers can
// share it.
package redis

import (
	"context"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding banned usernames.
const DefaultKey = "chatroom:bans"

// BanList implements store.BanStore on a Redis set.
type BanList struct {
	client *goredis.Client
	key    string
}

// New connects to addr and verifies the connection with PING.
func New(ctx context.Context, addr, password string, db int, key string) (*BanList, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, key), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, key string) *BanList {
	if key == "" {
		key = DefaultKey
	}
	return &BanList{client: client, key: key}
}

// AddBan adds username to the set.
func (b *BanList) AddBan(ctx context.Context, username string) error {
	if err := b.client.SAdd(ctx, b.key, username).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return nil
}

// RemoveBan removes username from the set.
func (b *BanList) RemoveBan(ctx context.Context, username string) error {
	if err := b.client.SRem(ctx, b.key, username).Err(); err != nil {
		return fmt.Errorf("redis srem: %w", err)
	}
	return nil
}

// IsBanned reports set membership.
func (b *BanList) IsBanned(ctx context.Context, username string) (bool, error) {
	ok, err := b.client.SIsMember(ctx, b.key, username).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

// ListBans returns the members sorted lexically.
func (b *BanList) ListBans(ctx context.Context) ([]string, error) {
	names, err := b.client.SMembers(ctx, b.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the underlying client.
func (b *BanList) Close() error {
	return b.client.Close()
}
