package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_ADDR", "KAFKA_BROKERS", "TIMEZONE", "STOCKSYNC_WORKERS", "STOCKSYNC_ADDR", "MIGRATE_ON_START", "POSTGRES_MAX_CONNS", "POSTGRES_CONNECT_WAIT"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, 8, cfg.StockSyncWorkers)
	assert.Equal(t, ":8082", cfg.StockSyncAddr)
	assert.True(t, cfg.MigrateOnStart)

	pg := cfg.Postgres()
	assert.EqualValues(t, 8, pg.MaxConns)
	assert.Equal(t, 30*time.Second, pg.Wait)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("STOCKSYNC_WORKERS", "3")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("POSTGRES_CONNECT_WAIT", "5s")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, 3, cfg.StockSyncWorkers)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, 5*time.Second, cfg.PostgresConnectWait)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestBadTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load().Location()
	assert.Error(t, err)
}
