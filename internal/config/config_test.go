package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("should apply defaults", func(t *testing.T) {
		req := require.New(t)

		cfg, err := Load()
		req.NoError(err)
		req.Equal(8080, cfg.Server.Port)
		req.Equal(VotePolicySingle, cfg.Chat.VotePolicy)
		req.Equal(15*time.Minute, cfg.JWT.AccessTTL)
		req.True(cfg.Database.AutoMigrate)
		req.False(cfg.IsProduction())
	})

	t.Run("should read overrides from the environment", func(t *testing.T) {
		req := require.New(t)
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("VOTE_POLICY", "MULTIPLE")
		t.Setenv("JWT_ACCESS_TTL", "1h")
		t.Setenv("S3_USE_SSL", "true")
		t.Setenv("ENVIRONMENT", "production")

		cfg, err := Load()
		req.NoError(err)
		req.Equal(9090, cfg.Server.Port)
		req.Equal(VotePolicyMultiple, cfg.Chat.VotePolicy)
		req.Equal(time.Hour, cfg.JWT.AccessTTL)
		req.True(cfg.Storage.UseSSL)
		req.True(cfg.IsProduction())
	})

	t.Run("should ignore malformed numbers", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "eighty")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Server.Port)
	})

	t.Run("should reject an unknown vote policy", func(t *testing.T) {
		t.Setenv("VOTE_POLICY", "weighted")

		_, err := Load()
		require.ErrorContains(t, err, "unknown vote policy")
	})
}
