package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	appconfig "github.com/followuphq/followup/internal/config"
	"github.com/followuphq/followup/pkg/logging"
)

func TestBuildRedisClientDisabled(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Default(), true); client != nil {
		t.Fatal("expected nil client without RedisAddr")
	}
	if client := BuildRedisClient(context.Background(), nil, nil, true); client != nil {
		t.Fatal("expected nil client for nil config")
	}
}

func TestBuildRedisClientVerified(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.Default(), true)
	if client == nil {
		t.Fatal("expected client for reachable redis")
	}
	defer client.Close()

	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestBuildRedisClientUnreachable(t *testing.T) {
	cfg := &appconfig.Config{RedisAddr: "127.0.0.1:1"}
	if client := BuildRedisClient(context.Background(), cfg, logging.Default(), true); client != nil {
		t.Fatal("expected nil client when ping fails")
	}
}
