package app

import (
	"context"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/notifier"
	"github.com/orgball2608/tweet-fetcher/internal/pgx"
	"github.com/orgball2608/tweet-fetcher/internal/poller"
	repositories "github.com/orgball2608/tweet-fetcher/internal/repositories/fx"
	"github.com/orgball2608/tweet-fetcher/internal/storage"
	"github.com/orgball2608/tweet-fetcher/internal/telegram"
	"github.com/orgball2608/tweet-fetcher/internal/telegram/telegramimpl"
	"github.com/orgball2608/tweet-fetcher/internal/twitter"
	"github.com/orgball2608/tweet-fetcher/internal/twitter/twitterimpl"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/fx"
)

// Module wires the poller and whichever sinks cfg enables. config.Args must
// be supplied separately.
func Module(cfg *config.Config) fx.Option {
	options := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(
			logger.FxOption,
			fx.Annotate(
				twitterimpl.New,
				fx.As(new(twitter.Client)),
			),
			notifier.New,
			newStore,
			newPoller,
		),
	}

	if cfg.TelegramEnabled() {
		options = append(options, fx.Provide(
			fx.Annotate(
				telegramimpl.New,
				fx.As(new(telegram.Client)),
			),
			notifier.AsSink(notifier.NewTelegramSink),
		))
	}

	if cfg.ArchiveEnabled() {
		options = append(options,
			fx.Provide(pgx.New),
			repositories.Module,
			fx.Provide(notifier.AsSink(notifier.NewArchiveSink)),
		)
	}

	options = append(options, fx.Invoke(run))

	return fx.Options(options...)
}

// StartTimeout leaves room for the first fetch cycle, which runs during start.
func StartTimeout(cfg *config.Config) time.Duration {
	if cfg.Twitter.FetchTimeout <= 0 {
		return 5 * time.Minute
	}
	return cfg.Twitter.FetchTimeout + 30*time.Second
}

func newStore(cfg *config.Config, args config.Args, log logger.Logger) *storage.Store {
	return storage.New(cfg.Storage.DataDir, args.Account, log)
}

func newPoller(
	cfg *config.Config,
	args config.Args,
	source twitter.Client,
	store *storage.Store,
	n *notifier.Notifier,
	log logger.Logger,
) *poller.Poller {
	return poller.New(poller.Opts{
		Account:      args.Account,
		Interval:     args.Interval(),
		Source:       source,
		Store:        store,
		Notifier:     n,
		Logger:       log,
		FetchTimeout: cfg.Twitter.FetchTimeout,
	})
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, p *poller.Poller) {
	var health *healthServer
	if cfg.App.Port > 0 {
		health = newHealthServer(cfg.App.Port, p, log)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Start(ctx); err != nil {
				return err
			}
			if health != nil {
				return health.Start()
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if health != nil {
				if err := health.Stop(ctx); err != nil {
					log.Error("Failed to stop health server", "error", err)
				}
			}
			return p.Stop(ctx)
		},
	})
}
