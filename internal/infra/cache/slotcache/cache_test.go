package slotcache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Warn(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, v...))
}

func TestKey_PerTenant(t *testing.T) {
	assert.Equal(t, "parking:slots:active:7", key(7))
	assert.NotEqual(t, key(1), key(2))
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	c.Set(context.Background(), 1, []*domain.Slot{{ID: 1}})

	slots, ok := c.Get(context.Background(), 1)
	assert.False(t, ok)
	assert.Nil(t, slots)
}

// Недоступный Redis даёт промах, а не ошибку
func TestRedisCache_UnavailableDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	log := &recordingLogger{}
	c := NewRedisCache(client, time.Minute, log)
	ctx := context.Background()

	c.Set(ctx, 1, []*domain.Slot{{ID: 1, Label: "A-1"}})
	slots, ok := c.Get(ctx, 1)
	c.Invalidate(ctx, 1)

	assert.False(t, ok)
	assert.Nil(t, slots)
	assert.Len(t, log.msgs, 3)
}
