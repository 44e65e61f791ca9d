package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_DisabledAllowsAll(t *testing.T) {
	for name, l := range map[string]*Limiter{
		"nil limiter": nil,
		"nil client":  NewLimiter(nil, "rl", 1, time.Minute),
		"zero limit":  NewLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "rl", 0, time.Minute),
	} {
		for i := 0; i < 5; i++ {
			ok, err := l.Allow(context.Background(), "impersonate_issue:203.0.113.7")
			require.NoError(t, err, name)
			assert.True(t, ok, name)
		}
	}
}

func TestLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	ok, err := NewLimiter(client, "rl", 1, time.Minute).Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}
