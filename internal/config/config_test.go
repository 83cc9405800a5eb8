package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, NotificationStorePostgres, cfg.NotificationStore)
	assert.Equal(t, 24*time.Hour, cfg.Policy.MinAdvance)
	assert.Equal(t, 12*time.Hour, cfg.Policy.FreeCancelWindow)
	assert.Equal(t, int64(2500), cfg.Policy.OneWayFeeCents)
	assert.Equal(t, 10*time.Minute, cfg.RedisConfig.TTL)
	assert.Equal(t, 4, cfg.Dispatcher.Workers)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("RENTAL_SERVICE_PORT", "9090")
	t.Setenv("RENTAL_NOTIFICATION_STORE", "Mongo")
	t.Setenv("RENTAL_POLICY_MIN_ADVANCE", "48h")
	t.Setenv("RENTAL_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, NotificationStoreMongo, cfg.NotificationStore)
	assert.Equal(t, 48*time.Hour, cfg.Policy.MinAdvance)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("unknown notification store", func(t *testing.T) {
		t.Setenv("RENTAL_NOTIFICATION_STORE", "cassandra")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("default secret in production", func(t *testing.T) {
		t.Setenv("RENTAL_APP_ENV", "production")
		_, err := Load()
		assert.Error(t, err)
	})
}
