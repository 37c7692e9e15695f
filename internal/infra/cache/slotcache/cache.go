// Package slotcache кэширует список активных слотов tenant в Redis.
// Кэш не является источником истины: любая ошибка Redis трактуется как промах.
package slotcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

const keyPrefix = "parking:slots:active:"

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Cache кэш списка активных слотов
type Cache interface {
	Get(ctx context.Context, tenantID int64) ([]*domain.Slot, bool)
	Set(ctx context.Context, tenantID int64, slots []*domain.Slot)
	Invalidate(ctx context.Context, tenantID int64)
}

// RedisCache реализация Cache поверх go-redis
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger Logger
}

// NewRedisCache создает кэш
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, logger Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// Get возвращает слоты из кэша; false при промахе или ошибке Redis
func (c *RedisCache) Get(ctx context.Context, tenantID int64) ([]*domain.Slot, bool) {
	data, err := c.client.Get(ctx, key(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("slotcache: get tenant=%d failed: %v", tenantID, err)
		return nil, false
	}

	var slots []*domain.Slot
	if err := json.Unmarshal(data, &slots); err != nil {
		c.logger.Warn("slotcache: corrupted entry for tenant=%d: %v", tenantID, err)
		c.Invalidate(ctx, tenantID)
		return nil, false
	}

	return slots, true
}

// Set сохраняет список слотов tenant
func (c *RedisCache) Set(ctx context.Context, tenantID int64, slots []*domain.Slot) {
	data, err := json.Marshal(slots)
	if err != nil {
		c.logger.Warn("slotcache: marshal slots for tenant=%d: %v", tenantID, err)
		return
	}

	if err := c.client.Set(ctx, key(tenantID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("slotcache: set tenant=%d failed: %v", tenantID, err)
	}
}

// Invalidate удаляет список слотов tenant
func (c *RedisCache) Invalidate(ctx context.Context, tenantID int64) {
	if err := c.client.Del(ctx, key(tenantID)).Err(); err != nil {
		c.logger.Warn("slotcache: invalidate tenant=%d failed: %v", tenantID, err)
	}
}

// Nop кэш, который ничего не хранит (Redis выключен)
type Nop struct{}

func (Nop) Get(context.Context, int64) ([]*domain.Slot, bool) { return nil, false }
func (Nop) Set(context.Context, int64, []*domain.Slot)         {}
func (Nop) Invalidate(context.Context, int64)                  {}

func key(tenantID int64) string {
	return keyPrefix + strconv.FormatInt(tenantID, 10)
}
