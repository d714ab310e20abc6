package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
)

// CatalogStore persists the last fetched custom field catalog
type CatalogStore interface {
	Load(ctx context.Context) (*CatalogSnapshot, error)
	Save(ctx context.Context, snapshot *CatalogSnapshot) error
}

// MemoryCatalogStore keeps the snapshot in process memory. Snapshots are
// replaced whole, never mutated, so concurrent readers see either the old or
// the new catalog.
type MemoryCatalogStore struct {
	snapshot atomic.Pointer[CatalogSnapshot]
}

// NewMemoryCatalogStore creates an empty in-memory store
func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{}
}

// Load implements CatalogStore.
func (s *MemoryCatalogStore) Load(_ context.Context) (*CatalogSnapshot, error) {
	return s.snapshot.Load(), nil
}

// Save implements CatalogStore.
func (s *MemoryCatalogStore) Save(_ context.Context, snapshot *CatalogSnapshot) error {
	s.snapshot.Store(snapshot)
	return nil
}

// DefaultCatalogRedisKey is the Redis key holding the shared catalog
const DefaultCatalogRedisKey = "tapfiliate:custom_fields"

// RedisCatalogStore shares the catalog between function instances through Redis
type RedisCatalogStore struct {
	client     *redis.Client
	key        string
	expiration time.Duration
}

// NewRedisCatalogStore creates a store writing to key. Entries expire after
// expiration; zero keeps them until overwritten.
func NewRedisCatalogStore(client *redis.Client, key string, expiration time.Duration) *RedisCatalogStore {
	if key == "" {
		key = DefaultCatalogRedisKey
	}
	return &RedisCatalogStore{client: client, key: key, expiration: expiration}
}

// Load implements CatalogStore. A missing key is not an error.
func (s *RedisCatalogStore) Load(ctx context.Context) (*CatalogSnapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read custom fields from redis: %w", err)
	}

	var snapshot CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cached custom fields: %w", err)
	}
	return &snapshot, nil
}

// Save implements CatalogStore.
func (s *RedisCatalogStore) Save(ctx context.Context, snapshot *CatalogSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode custom fields: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.expiration).Err(); err != nil {
		return fmt.Errorf("failed to write custom fields to redis: %w", err)
	}
	return nil
}
