package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/repositories/tweet"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/fx"
)

const cleanupTimeout = 5 * time.Minute

type ArchiveOpts struct {
	fx.In

	LC     fx.Lifecycle
	Repo   tweet.Repository
	Config *config.Config
	Logger logger.Logger
}

// ArchiveSink mirrors accepted tweet identities to Postgres and prunes old
// rows once a day.
type ArchiveSink struct {
	repo      tweet.Repository
	retention time.Duration
	logger    logger.Logger
}

func NewArchiveSink(opts ArchiveOpts) (*ArchiveSink, error) {
	s := &ArchiveSink{
		repo:      opts.Repo,
		retention: opts.Config.Postgres.Retention,
		logger:    opts.Logger.WithComponent("ArchiveSink"),
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}

	// Every day at 3:00 AM
	_, err = scheduler.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0)),
		),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
			defer cancel()

			if _, err := s.Cleanup(ctx); err != nil {
				s.logger.Error("Failed to clean up archived tweets", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule archive cleanup: %w", err)
	}

	opts.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			s.logger.Info("Archive cleanup scheduled", "retention", s.retention.String())
			return nil
		},
		OnStop: func(context.Context) error {
			s.logger.Info("Stopping archive cleanup scheduler")
			return scheduler.Shutdown()
		},
	})

	return s, nil
}

func (s *ArchiveSink) Name() string {
	return "archive"
}

// Send archives every tweet. Tweets that are already archived are skipped.
func (s *ArchiveSink) Send(ctx context.Context, account string, tweets []domain.Tweet) error {
	var errs []error
	archived := 0

	for _, t := range tweets {
		record := domain.NewArchivedTweet(t)
		if record.Username == "" {
			record.Username = account
		}

		err := s.repo.Create(ctx, record)
		switch {
		case err == nil:
			archived++
		case errors.Is(err, tweet.ErrAlreadyExists):
			s.logger.Debug("Tweet already archived", "tweet_id", t.ID)
		default:
			errs = append(errs, fmt.Errorf("archive tweet %s: %w", t.ID, err))
		}
	}

	if archived > 0 {
		total, err := s.repo.CountByUsername(ctx, account)
		if err != nil {
			s.logger.Warn("Failed to count archived tweets", "account", account, "error", err)
		} else {
			s.logger.Info("Archived tweets", "account", account, "archived", archived, "total", total)
		}
	}

	return errors.Join(errs...)
}

// Cleanup deletes rows older than the configured retention.
func (s *ArchiveSink) Cleanup(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}

	s.logger.Info("Starting archive cleanup", "retention", s.retention.String())

	rows, err := s.repo.CleanupOldRecords(ctx, s.retention)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Archive cleanup completed", "rows_deleted", rows)
	return rows, nil
}
