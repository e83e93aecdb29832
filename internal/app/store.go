package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DaveMcBlame1/chatroom/internal/config"
	"github.com/DaveMcBlame1/chatroom/internal/store"
	"github.com/DaveMcBlame1/chatroom/internal/store/badger"
	"github.com/DaveMcBlame1/chatroom/internal/store/memory"
	"github.com/DaveMcBlame1/chatroom/internal/store/redis"
	"github.com/DaveMcBlame1/chatroom/internal/store/sqlite"
)

// OpenStore opens the configured storage driver. When a Redis address is
// set, the ban list is served from Redis instead.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.StoreDriver {
	case "sqlite":
		st, err = sqlite.New(cfg.DatabasePath)
		if err == nil {
			logger.Info().Str("db_path", cfg.DatabasePath).Msg("sqlite store opened")
		}
	case "badger":
		st, err = badger.New(cfg.BadgerDir)
		if err == nil {
			logger.Info().Str("dir", cfg.BadgerDir).Msg("badger store opened")
		}
	case "memory":
		st = memory.New()
		logger.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	if cfg.RedisAddr == "" {
		return st, nil
	}
	bans, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisBanKey)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open redis ban list: %w", err)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("ban list served from redis")
	return store.WithBans(st, bans), nil
}
