package tweet

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/repositories"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

const table = "tweet_archive"

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("TweetArchiveRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

func (p *Pgx) Create(ctx context.Context, tweet domain.ArchivedTweet) error {
	query, args, err := repositories.SqBuilder.
		Insert(table).
		Columns("tweet_id", "username", "permalink", "tweet_type", "posted_at", "created_at").
		Values(tweet.TweetID, tweet.Username, tweet.Permalink, string(tweet.TweetType), tweet.PostedAt, time.Now()).
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	_, err = p.pg.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (p *Pgx) CountByUsername(ctx context.Context, username string) (int64, error) {
	query, args, err := repositories.SqBuilder.
		Select("COUNT(*)").
		From(table).
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	var count int64
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (p *Pgx) CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoffTime := time.Now().Add(-olderThan)

	query, args, err := repositories.SqBuilder.
		Delete(table).
		Where(sq.Lt{"created_at": cutoffTime}).
		ToSql()
	if err != nil {
		return 0, repositories.ErrBadQuery
	}

	result, err := p.pg.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
