package logger

import (
	"context"

	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"go.uber.org/fx"
)

var FxOption = fx.Annotate(
	func(lc fx.Lifecycle, cfg *config.Config) *Impl {
		log := New(
			Opts{
				Env:       cfg.App.Env,
				Level:     cfg.App.LogLevel,
				LogDir:    cfg.App.LogDir,
				SentryUrl: cfg.App.SentryUrl,
			},
		)
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return log.Close()
			},
		})
		return log
	},
	fx.As(new(Logger)),
)
