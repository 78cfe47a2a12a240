package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/adapters/filestore"
	redisadapter "github.com/corruptguard/helix/internal/adapters/redis"
	"github.com/corruptguard/helix/internal/data"
	"github.com/corruptguard/helix/internal/data/cryptoutil"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/redis/go-redis/v9"
)

// Storage is an opened session slot store plus whatever connections back it.
type Storage struct {
	Store ports.SessionStore
	Kind  config.StoreKind

	DB    *sql.DB
	Redis redis.UniversalClient
}

// Close releases backing connections. It is safe on a zero Storage.
func (s *Storage) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Redis != nil {
		errs = append(errs, closeNamed("redis", s.Redis))
	}
	if s.DB != nil {
		errs = append(errs, closeNamed("database", s.DB))
	}
	return errors.Join(errs...)
}

func closeNamed(name string, c io.Closer) error {
	if err := c.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// StorageConfig groups the settings needed to open a session store.
type StorageConfig struct {
	Storage  config.StorageConfig
	Postgres config.DBConfig
	Redis    config.RedisConfig
	Logger   *slog.Logger
}

// BuildSessionStore opens the configured slot backend and wraps it with the slot encryptor.
func BuildSessionStore(ctx context.Context, cfg StorageConfig) (*Storage, error) {
	enc, err := CreateEncryptor(cfg.Storage.EncryptionKey, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("session encryption: %w", err)
	}

	st := &Storage{Kind: cfg.Storage.Kind}
	var inner ports.SessionStore

	switch cfg.Storage.Kind {
	case config.StoreKindMemory:
		inner = filestore.NewMemory()
	case config.StoreKindRedis:
		client, connErr := ConnectRedis(ctx, cfg.Redis, cfg.Logger)
		if connErr != nil {
			return nil, connErr
		}
		st.Redis = client
		inner = redisadapter.NewSlotStoreWithPrefix(client, cfg.Storage.RedisPrefix)
	case config.StoreKindPostgres:
		db, connErr := ConnectDB(ctx, cfg.Postgres, cfg.Logger)
		if connErr != nil {
			return nil, connErr
		}
		st.DB = db
		if cfg.Postgres.RunMigrationsOnStart {
			if _, migErr := RunMigrations(ctx, db, cfg.Logger); migErr != nil {
				return nil, errors.Join(migErr, st.Close())
			}
		}
		inner = data.NewSlotRepo(db)
	case config.StoreKindFile, "":
		inner = filestore.New(cfg.Storage.File)
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Storage.Kind)
	}

	st.Store = cryptoutil.NewSealedStore(inner, enc)
	if cfg.Logger != nil {
		cfg.Logger.DebugContext(ctx, "session store ready", "kind", st.Kind)
	}
	return st, nil
}
