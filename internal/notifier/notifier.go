package notifier

import (
	"context"
	"fmt"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

//go:generate go run go.uber.org/mock/mockgen -source=notifier.go -destination=mocks/mock.go

// Sink receives every batch of newly accepted tweets.
type Sink interface {
	Name() string
	Send(ctx context.Context, account string, tweets []domain.Tweet) error
}

type Opts struct {
	fx.In

	Sinks  []Sink `group:"sinks"`
	Logger logger.Logger
}

type Notifier struct {
	sinks  []Sink
	logger logger.Logger
}

func New(opts Opts) *Notifier {
	n := &Notifier{
		sinks:  opts.Sinks,
		logger: opts.Logger.WithComponent("Notifier"),
	}
	n.logger.Info("Notification sinks configured", "sinks", n.SinkNames())
	return n
}

// AsSink annotates a sink constructor so it joins the sinks group.
func AsSink(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Sink)),
		fx.ResultTags(`group:"sinks"`),
	)
}

func (n *Notifier) SinkNames() []string {
	names := make([]string, 0, len(n.sinks))
	for _, s := range n.sinks {
		names = append(names, s.Name())
	}
	return names
}

// Notify hands tweets to every sink concurrently. A failing sink does not
// stop the others; all failures are joined into the returned error.
func (n *Notifier) Notify(ctx context.Context, account string, tweets []domain.Tweet) error {
	if len(tweets) == 0 || len(n.sinks) == 0 {
		return nil
	}

	// One slot per sink; Wait only reports the first failure.
	errs := make([]error, len(n.sinks))
	var g errgroup.Group

	for i, sink := range n.sinks {
		i, sink := i, sink
		g.Go(func() error {
			if err := sink.Send(ctx, account, tweets); err != nil {
				n.logger.Error("Sink failed", "sink", sink.Name(), "account", account, "error", err)
				errs[i] = fmt.Errorf("%s: %w", sink.Name(), err)
				return errs[i]
			}
			n.logger.Debug("Sink delivered tweets", "sink", sink.Name(), "account", account, "count", len(tweets))
			return nil
		})
	}

	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}
