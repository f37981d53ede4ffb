package poller

import (
	"context"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

// FetchCycle pulls the account's latest tweets, stores the unseen ones and
// returns them. Source failures are logged and yield nothing.
func (p *Poller) FetchCycle(ctx context.Context) []domain.Tweet {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	p.logger.Info("Fetching tweets", "account", p.account)

	raw, err := p.fetch(ctx)
	if err != nil {
		switch {
		case errors.IsUnauthorized(err):
			p.logger.Error("X API rejected the credentials, check TWITTER_BEARER_TOKEN", "account", p.account, "error", err)
		case errors.IsServiceUnavailable(err):
			p.logger.Warn("X API unavailable, retrying next cycle", "account", p.account, "error", err)
		default:
			p.logger.Error("Failed to fetch tweets", "account", p.account, "error", err)
		}
		p.recordCycle(p.clock.Now(), 0, p.store.Len())
		return nil
	}

	if len(raw) == 0 {
		p.logger.Info("No tweets found", "account", p.account)
		p.recordCycle(p.clock.Now(), 0, p.store.Len())
		return nil
	}

	res := p.store.AddTweets(domain.FormatTweets(raw))
	p.logger.Info("Added new tweets", "account", p.account, "added", res.Added, "total", res.Total)

	saved, err := p.store.Save(ctx)
	if err != nil {
		p.logger.Error("Failed to save tweets, keeping them in memory", "account", p.account, "error", err)
	} else {
		p.logger.Debug("Saved tweets", "path", saved.Path, "count", saved.Count)
	}

	p.recordCycle(p.clock.Now(), res.Added, res.Total)

	if len(res.NewTweets) > 0 && p.notifier != nil {
		if err := p.notifier.Notify(ctx, p.account, res.NewTweets); err != nil {
			p.logger.Error("Failed to notify about new tweets", "account", p.account, "error", err)
		}
	}

	return res.NewTweets
}

// fetch drains the source. A stream that fails part way yields nothing.
func (p *Poller) fetch(ctx context.Context) ([]domain.RawTweet, error) {
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	var raw []domain.RawTweet
	err := p.source.GetTweets(ctx, p.account, func(tweet domain.RawTweet) error {
		raw = append(raw, tweet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}
