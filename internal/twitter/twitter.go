package twitter

import (
	"context"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

var (
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "twitter user")
	ErrUnauthorized = errors.Wrap(errors.ErrUnauthorized, "twitter credentials rejected")
	ErrRateLimited  = errors.Wrap(errors.ErrServiceUnavailable, "twitter rate limit exceeded")
	ErrUnavailable  = errors.Wrap(errors.ErrServiceUnavailable, "twitter api")
)

// TweetProcessorFunc receives tweets one by one. Returning an error stops the stream.
type TweetProcessorFunc func(tweet domain.RawTweet) error

//go:generate go run go.uber.org/mock/mockgen -source=twitter.go -destination=mocks/mock.go

type Client interface {
	// GetTweets streams the latest tweets of username to fn, newest first.
	// An unknown account yields no tweets and no error.
	GetTweets(ctx context.Context, username string, fn TweetProcessorFunc) error
}
