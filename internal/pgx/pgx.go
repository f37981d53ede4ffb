package pgx

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/tweet-fetcher/internal/migrations"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In
	LC fx.Lifecycle

	Logger logger.Logger
	Config *config.Config
}

// New creates the archive pool. The schema is migrated when the app starts.
func New(opts Opts) (*pgxpool.Pool, error) {
	dsn := opts.Config.GetDSN()

	pgx, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	opts.LC.Append(
		fx.Hook{
			OnStop: func(ctx context.Context) error {
				pgx.Close()
				return nil
			},
			OnStart: func(ctx context.Context) error {
				if err := pgx.Ping(ctx); err != nil {
					return fmt.Errorf("failed to ping postgres: %w", err)
				}
				opts.Logger.Info("Connected to postgres")

				if err := migrations.Up(ctx, dsn); err != nil {
					return err
				}
				opts.Logger.Info("Archive schema is up to date")
				return nil
			},
		},
	)

	return pgx, nil
}
