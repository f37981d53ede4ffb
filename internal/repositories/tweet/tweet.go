package tweet

import (
	"context"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

var ErrAlreadyExists = errors.New("archived tweet already exists")

//go:generate go run go.uber.org/mock/mockgen -source=tweet.go -destination=mocks/mock.go
type Repository interface {
	// Create archives a tweet identity. Returns ErrAlreadyExists for a known tweet id.
	Create(ctx context.Context, tweet domain.ArchivedTweet) error

	// CountByUsername returns how many tweets are archived for username
	CountByUsername(ctx context.Context, username string) (int64, error)

	// CleanupOldRecords deletes records archived longer ago than olderThan
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}
