//go:build integration

package containers

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/thistle/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// NewRedisClient starts redis and returns a connected client.
func NewRedisClient(t *testing.T, logger ectologger.Logger) *redis.Client {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}

	opts, err := goredis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis URL: %v", err)
	}

	host, portText, err := net.SplitHostPort(opts.Addr)
	if err != nil {
		t.Fatalf("failed to split redis address: %v", err)
	}
	port, err := strconv.Atoi(portText)
	if err != nil {
		t.Fatalf("invalid redis port %q: %v", portText, err)
	}

	client, err := redis.NewClient(redis.Config{Host: host, Port: port, DB: opts.DB, KeyPrefix: "thistle-test:"}, logger)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client
}
