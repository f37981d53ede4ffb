package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateTweetArchive, downCreateTweetArchive)
}

func upCreateTweetArchive(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS tweet_archive (
		id SERIAL PRIMARY KEY,
		tweet_id VARCHAR NOT NULL UNIQUE,
		username VARCHAR NOT NULL,
		permalink VARCHAR NOT NULL,
		tweet_type VARCHAR NOT NULL,
		posted_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS tweet_archive_username_idx ON tweet_archive (username);
	CREATE INDEX IF NOT EXISTS tweet_archive_created_at_idx ON tweet_archive (created_at);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateTweetArchive(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
	DROP TABLE IF EXISTS tweet_archive;
	`)
	if err != nil {
		return err
	}
	return nil
}
