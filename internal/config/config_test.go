package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BOT_USERNAME", "moviefinderbot")
	t.Setenv("CHANNEL_IDS", "-1001234567890")
	// Clear anything the host environment may carry.
	for _, key := range []string{
		"ADMIN_IDS", "RESULT_LIMIT", "BROAD_LIMIT", "SCORE_CUTOFF",
		"LANGUAGES", "SEARCH_COOLDOWN", "MATCH_WORKERS", "PORT",
		"MONGODB_URI", "UPDATE_CHANNEL_URL", "CONTACT_URL", "START_PIC",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "moviefinderbot", cfg.BotUsername)
	assert.Equal(t, []int64{-1001234567890}, cfg.ChannelIDs)
	assert.Equal(t, 10, cfg.ResultLimit)
	assert.Equal(t, 500, cfg.BroadLimit)
	assert.Equal(t, 60, cfg.ScoreCutoff)
	assert.Equal(t, []string{"Bengali", "Hindi", "English"}, cfg.Languages)
	assert.Equal(t, 3*time.Second, cfg.SearchCooldown)
	assert.Equal(t, 4, cfg.MatchWorkers)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_USERNAME", "@moviefinderbot")
	t.Setenv("CHANNEL_IDS", "-100111, -100222")
	t.Setenv("ADMIN_IDS", "42,43")
	t.Setenv("SCORE_CUTOFF", "70")
	t.Setenv("LANGUAGES", "Tamil, Telugu")
	t.Setenv("SEARCH_COOLDOWN", "10s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "moviefinderbot", cfg.BotUsername, "leading @ is stripped")
	assert.Equal(t, []int64{-100111, -100222}, cfg.ChannelIDs)
	assert.Equal(t, []int64{42, 43}, cfg.AdminIDs)
	assert.Equal(t, 70, cfg.ScoreCutoff)
	assert.Equal(t, []string{"Tamil", "Telugu"}, cfg.Languages)
	assert.Equal(t, 10*time.Second, cfg.SearchCooldown)

	assert.True(t, cfg.IsSourceChannel(-100222))
	assert.False(t, cfg.IsSourceChannel(-100333))
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(44))
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_TOKEN", "")
	_, err := Load()
	assert.Error(t, err)

	setRequired(t)
	t.Setenv("BOT_USERNAME", "")
	_, err = Load()
	assert.Error(t, err)

	setRequired(t)
	t.Setenv("CHANNEL_IDS", "")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("CHANNEL_IDS", "notanumber")
	_, err := Load()
	assert.Error(t, err)

	setRequired(t)
	t.Setenv("SCORE_CUTOFF", "150")
	_, err = Load()
	assert.Error(t, err)

	setRequired(t)
	t.Setenv("SEARCH_COOLDOWN", "soon")
	_, err = Load()
	assert.Error(t, err)
}
