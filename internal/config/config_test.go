package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	def := Default()
	require.Equal(t, def.Addr, cfg.Addr)
	require.Equal(t, def.StoreDriver, cfg.StoreDriver)
	require.Equal(t, def.AuthorizedUsers, cfg.AuthorizedUsers)
	require.Equal(t, def.PingInterval, cfg.PingInterval)
	require.Equal(t, def.HistoryLimit, cfg.HistoryLimit)
	require.FileExists(t, path)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
addr: ":9090"
store_driver: badger
badger_dir: /tmp/chat
history_limit: 25
ping_interval: 10s
authorized_users: [root, admin]
censored_words: [badger]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CHATROOM_ADDR", ":7070")
	t.Setenv("CHATROOM_MAX_MESSAGE_LENGTH", "120")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Addr, "env wins over file")
	require.Equal(t, "badger", cfg.StoreDriver)
	require.Equal(t, "/tmp/chat", cfg.BadgerDir)
	require.Equal(t, 25, cfg.HistoryLimit)
	require.Equal(t, 120, cfg.MaxMessageLength)
	require.Equal(t, 10*time.Second, cfg.PingInterval)
	require.Equal(t, []string{"root", "admin"}, cfg.AuthorizedUsers)
	require.Equal(t, []string{"badger"}, cfg.CensoredWords)
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o600))

	_, _, err := Load(nil, path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "postgres" }},
		{name: "sqlite without path", mutate: func(c *Config) { c.DatabasePath = "" }},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }},
		{name: "history over cap", mutate: func(c *Config) { c.HistoryLimit = 500 }},
		{name: "zero buffer", mutate: func(c *Config) { c.SendBuffer = 0 }},
		{name: "blank authorized user", mutate: func(c *Config) { c.AuthorizedUsers = []string{""} }},
		{name: "blank origin pattern", mutate: func(c *Config) { c.OriginPatterns = []string{""} }},
		{name: "bad otel endpoint", mutate: func(c *Config) { c.OTelEndpoint = "not a url" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", StoreDriver: "memory"})

	require.Equal(t, ":1", cfg.Addr)
	require.Equal(t, "memory", cfg.StoreDriver)
	require.Equal(t, Default().DatabasePath, cfg.DatabasePath)
}
