//go:build integration

package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container and returns a client
func setupRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestTracker_Integration_SharedQuota(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	ctx := context.Background()

	// Two trackers over the same Redis see each other's updates.
	first := NewTracker(NewRedisStore(redisClient), logger)
	second := NewTracker(NewRedisStore(redisClient), logger)

	headers := http.Header{}
	headers.Set(HeaderLimit, "1000")
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderReset, "300")

	if err := first.UpdateFromHeaders(ctx, "genderize", headers); err != nil {
		t.Fatalf("UpdateFromHeaders() error = %v", err)
	}

	allowed, err := second.Allow(ctx, "genderize")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("second tracker should see the exhausted quota")
	}

	state, err := second.GetState(ctx, "genderize")
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Limit != 1000 {
		t.Errorf("Limit = %d, want 1000", state.Limit)
	}
}

func TestTracker_Integration_RecordExhausted(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	tracker := NewTracker(NewRedisStore(redisClient), zerolog.Nop())
	ctx := context.Background()

	if err := tracker.RecordExhausted(ctx, "nationalize"); err != nil {
		t.Fatalf("RecordExhausted() error = %v", err)
	}

	allowed, err := tracker.Allow(ctx, "nationalize")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("Allow() should be false after RecordExhausted")
	}

	ttl, err := redisClient.TTL(ctx, Key("nationalize")).Result()
	if err != nil {
		t.Fatalf("TTL() error = %v", err)
	}
	if ttl <= 0 {
		t.Errorf("quota key should expire at reset, TTL = %v", ttl)
	}
}
