package initializers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv(t *testing.T) {
	t.Run("database url is required", func(t *testing.T) {
		t.Setenv("DB_URL", "")
		t.Setenv("JWT_SECRET", "secret")

		_, err := LoadEnv()
		assert.Error(t, err)
	})

	t.Run("jwt secret is required", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://localhost/faith")
		t.Setenv("JWT_SECRET", "")

		_, err := LoadEnv()
		assert.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://localhost/faith")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "")
		t.Setenv("PORT", "")
		t.Setenv("QUEUE_ENABLED", "")
		t.Setenv("FRONTEND_BASE_URL", "https://faith.example/")

		cfg, err := LoadEnv()
		if assert.NoError(t, err) {
			assert.Equal(t, "8080", cfg.Port)
			assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
			assert.False(t, cfg.Queue.Enabled)
			assert.Equal(t, 5, cfg.Queue.Workers)
			assert.Equal(t, "https://faith.example", cfg.FrontendBaseURL)
		}
	})

	t.Run("invalid ttl", func(t *testing.T) {
		t.Setenv("DB_URL", "postgres://localhost/faith")
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("JWT_TTL", "a day")

		_, err := LoadEnv()
		assert.Error(t, err)
	})
}
