package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/corruptguard/helix/config"
	"github.com/corruptguard/helix/internal/bootstrap"
	"github.com/corruptguard/helix/internal/service"
)

const defaultMigrationTimeout = 5 * time.Minute

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	applied, err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
	if err != nil {
		return err
	}
	return printMigrations(cmdCtx.Out, applied)
}

func printMigrations(w io.Writer, applied []string) error {
	if len(applied) == 0 {
		return writeln(w, "Schema is up to date.")
	}
	for _, version := range applied {
		if err := writef(w, "Applied %s\n", version); err != nil {
			return err
		}
	}
	return nil
}

type clearSessionOptions struct {
	Yes bool
}

func parseClearSessionFlags(args []string) (clearSessionOptions, error) {
	fs := flag.NewFlagSet("clear-session", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts clearSessionOptions
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return clearSessionOptions{}, err
	}
	return opts, nil
}

// runClearSession removes the slots directly from the store; the backend is not told.
func runClearSession(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionFlags(args)
	if err != nil {
		return err
	}
	if confirmErr := confirm(cmdCtx.Out, os.Stdin, opts.Yes, "delete stored session slots from "+describeStore(&cmdCtx.Config)); confirmErr != nil {
		return confirmErr
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	st, err := bootstrap.BuildSessionStore(ctx, bootstrap.StorageConfig{
		Storage:  cmdCtx.Config.Storage,
		Postgres: cmdCtx.Config.Postgres,
		Redis:    cmdCtx.Config.Redis,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close session store failed", "error", closeErr)
		}
	}()

	if delErr := st.Store.Delete(ctx, service.AllSlots()...); delErr != nil {
		return fmt.Errorf("delete session slots: %w", delErr)
	}
	return writeln(cmdCtx.Out, "Session slots cleared.")
}

func describeStore(cfg *config.AppConfig) string {
	switch cfg.Storage.Kind {
	case config.StoreKindFile:
		return cfg.Storage.File
	case config.StoreKindRedis:
		return "redis prefix " + cfg.Storage.RedisPrefix
	case config.StoreKindPostgres:
		return fmt.Sprintf("postgres database %q on %s:%d", cfg.Postgres.Name, cfg.Postgres.Host, cfg.Postgres.Port)
	default:
		return string(cfg.Storage.Kind) + " store"
	}
}
