package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Database wraps the sqlite connection pool. Every store used by the bot
// (infractions, guild settings, leveling) goes through this one handle so the
// pool limit in the config bounds all persistence work.
type Database struct {
	db        *sql.DB
	opTimeout time.Duration
}

type Options struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	// OpTimeout bounds how long a single store operation may wait for a pool
	// slot plus execute. Zero disables the bound.
	OpTimeout time.Duration
}

// Open opens (creating if necessary) the sqlite database and provisions the
// schema.
func Open(opts Options) (*Database, error) {
	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	d := &Database{db: db, opTimeout: opts.OpTimeout}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// Ping verifies the database is still reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := d.opCtx(ctx)
	defer cancel()
	return d.db.PingContext(ctx)
}

// opCtx applies the configured per-operation timeout. Callers must invoke the
// returned cancel func.
func (d *Database) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.opTimeout)
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS infractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '',
		expires_at INTEGER,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_infractions_guild_user ON infractions(guild_id, user_id, id);
	CREATE INDEX IF NOT EXISTS idx_infractions_warns ON infractions(guild_id, user_id, kind, expires_at);

	CREATE TABLE IF NOT EXISTS guild_settings (
		guild_id TEXT PRIMARY KEY,
		mod_log_channel_id TEXT NOT NULL DEFAULT '',
		automod_log_channel_id TEXT NOT NULL DEFAULT '',
		warn_expiry_days INTEGER NOT NULL DEFAULT 60,
		escalation_thresholds TEXT NOT NULL DEFAULT '',
		automod_enabled INTEGER NOT NULL DEFAULT 1,
		automod_anti_spam INTEGER NOT NULL DEFAULT 1,
		automod_anti_link INTEGER NOT NULL DEFAULT 1,
		automod_anti_mention_flood INTEGER NOT NULL DEFAULT 1,
		automod_spam_max_messages INTEGER NOT NULL DEFAULT 5,
		automod_spam_window_seconds INTEGER NOT NULL DEFAULT 8,
		automod_mention_limit INTEGER NOT NULL DEFAULT 5,
		automod_cooldown_seconds INTEGER NOT NULL DEFAULT 60,
		automod_timeout_minutes INTEGER NOT NULL DEFAULT 10,
		automod_link_allowed_domains TEXT NOT NULL DEFAULT '',
		automod_bypass_role_ids TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS user_levels (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		total_xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (guild_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_user_levels_rank ON user_levels(guild_id, total_xp DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
