// Package idgen allocates client identifiers. Allocation goes through a
// shared atomic counter rather than counting existing records, so concurrent
// onboarding requests can never race into the same id.
package idgen

import (
	"context"
	"fmt"
	"sync/atomic"

	"brokerkyc/pkg/cache"
	"brokerkyc/pkg/errors"
)

// Client ids are issued as "CL" + n, starting at CL1001.
const (
	clientIDPrefix = "CL"
	sequenceBase   = 1000
)

// Sequence hands out unique client identifiers.
type Sequence interface {
	Next(ctx context.Context) (string, error)
}

// RedisSequence reserves ids through Redis INCR.
type RedisSequence struct {
	cache *cache.RedisCache
	key   string
}

func NewRedisSequence(c *cache.RedisCache, key string) *RedisSequence {
	return &RedisSequence{cache: c, key: key}
}

func (s *RedisSequence) Next(ctx context.Context) (string, error) {
	n, err := s.cache.Increment(ctx, s.key)
	if err != nil {
		return "", errors.Wrap(errors.ErrSequenceUnavailable, err.Error())
	}
	return format(n), nil
}

// Seed raises the counter so freshly issued ids never collide with clients
// that already exist in the store.
func (s *RedisSequence) Seed(ctx context.Context, existingClients int64) error {
	return s.cache.SetCounterFloor(ctx, s.key, existingClients)
}

// MemorySequence is a process-local Sequence for tests and the seeder.
type MemorySequence struct {
	counter int64
}

func NewMemorySequence() *MemorySequence {
	return &MemorySequence{}
}

func (s *MemorySequence) Next(ctx context.Context) (string, error) {
	return format(atomic.AddInt64(&s.counter, 1)), nil
}

func format(n int64) string {
	return fmt.Sprintf("%s%d", clientIDPrefix, sequenceBase+n)
}
