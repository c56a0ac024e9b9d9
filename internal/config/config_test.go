package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/tiptoe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, "127.0.0.1:17878", cfg.Listen)
	assert.Equal(t, []string{"token=[^&]+", "secret"}, cfg.Redact)
	assert.Equal(t, 700*time.Millisecond, cfg.Decay)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "tiptoe.yaml", `
listen: 0.0.0.0:9000
capacity: 64
decay: 1s
redis:
  addr: localhost:6379
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, 64, cfg.Capacity)
	assert.Equal(t, time.Second, cfg.Decay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tiptoe:events", cfg.Redis.Key, "unset nested keys keep defaults")
	assert.Equal(t, 10*time.Second, cfg.PruneInterval)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "tiptoe.toml", `
listen = "127.0.0.1:7000"
idle_delay = "30ms"

[redis]
key = "nav:events"
max_len = 50
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	assert.Equal(t, 30*time.Millisecond, cfg.IdleDelay)
	assert.Equal(t, "nav:events", cfg.Redis.Key)
	assert.Equal(t, int64(50), cfg.Redis.MaxLen)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "tiptoe.json", `{"capacity": 32, "prune_interval": "2s", "admin_addr": ":8080"}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.PruneInterval)
	assert.Equal(t, ":8080", cfg.AdminAddr)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, "bad.yaml", "listen: [unclosed"))
	assert.Error(t, err)

	_, err = config.Load(writeFile(t, "typo.yaml", "lisen: 1.2.3.4:5"))
	assert.ErrorContains(t, err, "lisen", "unknown keys are rejected")

	_, err = config.Load(writeFile(t, "dur.yaml", "decay: soon"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	err := cfg.ApplyEnv([]string{
		"HOME=/root",
		"TIPTOE_CAPACITY=256",
		"TIPTOE_DECAY=250ms",
		"TIPTOE_REDIS_ADDR=redis:6379",
		"TIPTOE_MAX_LINE_SIZE=10",
		"TIPTOE_REDACT=token=[^&]+,secret",
	})
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Capacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Decay)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "127.0.0.1:17878", cfg.Listen)
	assert.Equal(t, []string{"token=[^&]+", "secret"}, cfg.Redact)

	err = cfg.ApplyEnv([]string{"TIPTOE_CAPACITY=lots"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.Listen = ""
	cfg.Capacity = 1
	cfg.Decay = 0
	cfg.Redis.Addr = "redis:6379"
	cfg.Redis.Key = ""
	cfg.Redact = []string{"("}

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "listen")
	assert.ErrorContains(t, err, "capacity")
	assert.ErrorContains(t, err, "decay")
	assert.ErrorContains(t, err, "redis.key")
	assert.ErrorContains(t, err, "redact")
}
