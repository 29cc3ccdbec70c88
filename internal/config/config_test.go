package config_test

import (
	"testing"
	"time"

	"doner/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 24*time.Hour, cfg.StageTTL)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 4, cfg.ConsumerWorkers)
	assert.Equal(t, 24*time.Hour, cfg.IdentityTTL)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestFromViper_Overrides(t *testing.T) {
	t.Setenv("STAGE_TTL", "2h")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("CURRENCY", "BYN")

	v := viper.New()
	config.SetDefaults(v)
	v.AutomaticEnv()

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.StageTTL)
	assert.Equal(t, int64(42), cfg.AdminID)
	assert.Equal(t, "BYN", cfg.Currency)
}

func TestFromViper_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
		want string
	}{
		{"unknown driver", "DB_DRIVER", "mysql", "unsupported DB_DRIVER"},
		{"zero ttl", "STAGE_TTL", "0s", "STAGE_TTL must be positive"},
		{"no workers", "CONSUMER_WORKERS", 0, "CONSUMER_WORKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := config.FromViper(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
