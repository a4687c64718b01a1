package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Game.StartingCashDecimal().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, time.Minute, cfg.Quotes.RefreshInterval())
	assert.Equal(t, 10*time.Second, cfg.Quotes.RequestTimeout())
	assert.Equal(t, 5*time.Minute, cfg.Quotes.SnapshotMinInterval())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte(`
server:
  port: 9090
mongo:
  uri: mongodb://db:27017
  database: league_test
game:
  starting_cash: "100.00"
  default_players:
    - Alpha
    - Beta
quotes:
  refresh_interval_sec: 30
  request_timeout_sec: 5
  snapshot_min_interval_sec: 60
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "league_test", cfg.Mongo.Database)
	assert.True(t, cfg.Game.StartingCashDecimal().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, []string{"Alpha", "Beta"}, cfg.Game.DefaultPlayers)
	assert.Equal(t, 30*time.Second, cfg.Quotes.RefreshInterval())

	// Untouched values keep their defaults.
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Quotes.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("STOCKLEAGUE_SERVER_PORT", "7070")
	t.Setenv("STOCKLEAGUE_MONGO_URI", "mongodb://env:27017")
	t.Setenv("STOCKLEAGUE_GAME_STARTING_CASH", "25.50")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
	assert.True(t, cfg.Game.StartingCashDecimal().Equal(decimal.NewFromFloat(25.50)))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Mongo.URI = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Game.StartingCash = "not-a-number"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Game.StartingCash = "-10"
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Quotes.RefreshIntervalSec = 0
	assert.Error(t, cfg.Validate())
}
