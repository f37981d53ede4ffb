package notifier

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/ratelimit"
	"github.com/orgball2608/tweet-fetcher/internal/telegram"
	"github.com/orgball2608/tweet-fetcher/pkg/config"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
	"github.com/orgball2608/tweet-fetcher/pkg/formatter"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

const maxMessageTextRunes = 200

var linkEscaper = strings.NewReplacer(`\`, `\\`, `)`, `\)`)

type TelegramSink struct {
	client      telegram.Client
	limiter     ratelimit.Limiter
	maxPerBatch int
	logger      logger.Logger
}

func NewTelegramSink(client telegram.Client, cfg *config.Config, log logger.Logger) *TelegramSink {
	return &TelegramSink{
		client:      client,
		limiter:     ratelimit.New(cfg.Telegram.MessagesPerMinute, time.Minute, 1),
		maxPerBatch: cfg.Telegram.MaxMessagesPerBatch,
		logger:      log.WithComponent("TelegramSink"),
	}
}

func (s *TelegramSink) Name() string {
	return "telegram"
}

// Send posts one paced message per tweet, oldest first. Only the newest
// maxPerBatch tweets are posted, so a fresh store does not flood the channel.
func (s *TelegramSink) Send(ctx context.Context, account string, tweets []domain.Tweet) error {
	ordered := slices.Clone(tweets)
	slices.SortStableFunc(ordered, func(a, b domain.Tweet) int {
		return a.Time().Compare(b.Time())
	})

	if s.maxPerBatch > 0 && len(ordered) > s.maxPerBatch {
		skipped := len(ordered) - s.maxPerBatch
		s.logger.Warn("Too many new tweets, posting only the newest",
			"account", account,
			"new", len(ordered),
			"posting", s.maxPerBatch,
			"skipped", skipped)
		ordered = ordered[skipped:]
	}

	var errs []error
	sent := 0
	for _, tweet := range ordered {
		if err := s.limiter.Wait(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.client.SendMessageToChannel(FormatTweetMessage(account, tweet)); err != nil {
			errs = append(errs, fmt.Errorf("tweet %s: %w", tweet.ID, err))
			continue
		}
		sent++
	}

	s.logger.Info("Posted tweets to channel", "account", account, "sent", sent, "failed", len(ordered)-sent)
	return errors.Join(errs...)
}

// FormatTweetMessage renders a tweet as a Telegram MarkdownV2 message.
func FormatTweetMessage(account string, tweet domain.Tweet) string {
	username := tweet.Author.Username
	if username == "" {
		username = account
	}

	var sb strings.Builder

	sb.WriteString("*New ")
	sb.WriteString(typeLabel(tweet.Type))
	sb.WriteString(" from @")
	sb.WriteString(formatter.EscapeMarkdownV2(username))
	sb.WriteString("*\n")

	if text := strings.TrimSpace(tweet.Text); text != "" {
		sb.WriteString(formatter.EscapeMarkdownV2(formatter.Truncate(text, maxMessageTextRunes)))
		sb.WriteString("\n")
	}

	if n := len(tweet.Media); n > 0 {
		sb.WriteString(formatter.EscapeMarkdownV2(fmt.Sprintf("📎 %d media", n)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("❤️ %s  💬 %s  🔁 %s  👁 %s",
		formatter.EscapeMarkdownV2(formatter.FormatNumber(tweet.Stats.Likes)),
		formatter.EscapeMarkdownV2(formatter.FormatNumber(tweet.Stats.Replies)),
		formatter.EscapeMarkdownV2(formatter.FormatNumber(tweet.Stats.Retweets)),
		formatter.EscapeMarkdownV2(formatter.FormatNumber(tweet.Stats.Views)),
	))

	if tweet.Permalink != "" {
		sb.WriteString("\n[Open on X](")
		sb.WriteString(linkEscaper.Replace(tweet.Permalink))
		sb.WriteString(")")
	}

	return sb.String()
}

func typeLabel(t domain.TweetType) string {
	switch t {
	case domain.TweetTypeRetweet:
		return "retweet"
	case domain.TweetTypeQuoted:
		return "quote"
	case domain.TweetTypeReply:
		return "reply"
	default:
		return "tweet"
	}
}
