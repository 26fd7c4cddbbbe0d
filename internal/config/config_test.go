package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DB_NAME", "portal")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, SourceMongo, cfg.SubmissionSource)
	assert.Equal(t, "similarity:stream", cfg.RedisStreamKey)
	assert.Equal(t, 10*time.Minute, cfg.ComputationTimeout)
	assert.Equal(t, 24*time.Hour, cfg.StreamRetentionDuration)
	assert.Equal(t, "8080", cfg.ServerPort)

	engine := cfg.Engine()
	assert.Equal(t, 3, engine.ShingleSize)
	assert.Equal(t, 3, engine.MinTokenLength)
	assert.NotNil(t, engine.Scorer)

	tiers := cfg.Tiers()
	assert.Equal(t, 0.30, tiers.Significant)
	assert.Equal(t, 0.20, tiers.Moderate)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SHINGLE_SIZE", "4")
	t.Setenv("MIN_TOKEN_LENGTH", " 2 ")
	t.Setenv("TIER_SIGNIFICANT", "0.5")
	t.Setenv("TIER_MODERATE", "0.25")
	t.Setenv("COMPUTATION_TIMEOUT_MINUTES", "2")
	t.Setenv("SUBMISSION_SOURCE", "dir")
	t.Setenv("UPLOADS_DIR", "/data/uploads")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Engine().ShingleSize)
	assert.Equal(t, 2, cfg.Engine().MinTokenLength)
	assert.Equal(t, 0.5, cfg.Tiers().Significant)
	assert.Equal(t, 2*time.Minute, cfg.ComputationTimeout)
	assert.Equal(t, SourceDir, cfg.SubmissionSource)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"unknown source", map[string]string{"SUBMISSION_SOURCE": "ftp"}},
		{"portal without url", map[string]string{"SUBMISSION_SOURCE": "portal"}},
		{"zero shingle size", map[string]string{"SHINGLE_SIZE": "0"}},
		{"inverted tiers", map[string]string{"TIER_SIGNIFICANT": "0.1", "TIER_MODERATE": "0.2"}},
		{"zero concurrency", map[string]string{"MAX_CONCURRENT_COMPUTE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}
