package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bananalabs-oss/clans/internal/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func Connect(databaseURL string, log *zap.Logger) (*bun.DB, error) {
	path := strings.TrimPrefix(databaseURL, "sqlite://")

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Every connection to an in-memory database sees its own empty schema.
	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		sqldb.SetMaxOpenConns(1)
	}

	if _, err := sqldb.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if _, err := sqldb.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("connected to sqlite", zap.String("path", path))
	return db, nil
}

func Migrate(ctx context.Context, db *bun.DB, log *zap.Logger) error {
	log.Info("running database migrations")

	tables := []interface{}{
		(*models.Clan)(nil),
		(*models.Member)(nil),
		(*models.Invite)(nil),
		(*models.PlayerScore)(nil),
		(*models.Advertisement)(nil),
	}

	for _, model := range tables {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		name  string
		query string
	}{
		{
			"idx_clans_colorless_name",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_clans_colorless_name ON clans (colorless_name COLLATE NOCASE)",
		},
		{
			"idx_clan_members_player",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_clan_members_player ON clan_members (player_id)",
		},
		{
			"idx_clan_members_clan",
			"CREATE INDEX IF NOT EXISTS idx_clan_members_clan ON clan_members (clan_id)",
		},
		{
			"idx_clan_invites_player",
			"CREATE INDEX IF NOT EXISTS idx_clan_invites_player ON clan_invites (player_id)",
		},
		{
			"idx_clan_advertisements_clan",
			"CREATE INDEX IF NOT EXISTS idx_clan_advertisements_clan ON clan_advertisements (clan_id)",
		},
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx.query); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	log.Info("migrations complete")
	return nil
}
