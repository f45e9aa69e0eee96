package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hilthontt/trio/infrastructure/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config-test.yml"), []byte(body), 0o600))
	return dir
}

func load(t *testing.T, dir string) (*config.Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	v, err := config.LoadConfig("config-test", "yml")
	require.NoError(t, err)
	return config.ParseConfig(v)
}

func TestLoadConfigAppliesMatchDefaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  internalPort: 5000
  externalPort: 5000
`)
	cfg, err := load(t, dir)
	require.NoError(t, err)

	require.Equal(t, 5*time.Minute, cfg.Match.GraceWindow)
	require.Equal(t, 10*time.Second, cfg.Match.SweepInterval)
	require.Equal(t, 5*time.Second, cfg.Match.StoreTimeout)
	require.Equal(t, "memory", cfg.Match.RoomStore)
	require.Equal(t, "trio.rooms", cfg.RabbitMQ.Exchange)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsDurations(t *testing.T) {
	dir := writeConfig(t, `
server:
  internalPort: 5000
  externalPort: 5000
match:
  graceWindow: 90s
  sweepInterval: 2s
`)
	cfg, err := load(t, dir)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Match.GraceWindow)
	require.Equal(t, 2*time.Second, cfg.Match.SweepInterval)
}

func TestValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{InternalPort: "1", ExternalPort: "1"},
			Match: config.MatchConfig{
				GraceWindow:   time.Minute,
				SweepInterval: time.Second,
				StoreTimeout:  time.Second,
				RoomStore:     "memory",
				QueueStore:    "memory",
			},
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Match.RoomStore = "mongo"
	require.Error(t, cfg.Validate())
	cfg.Mongo.URI = "mongodb://localhost"
	require.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Match.QueueStore = "redis"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Match.QueueStore = "kafka"
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Postgres.Enabled = true
	require.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Match.GraceWindow = 0
	require.Error(t, cfg.Validate())
}
