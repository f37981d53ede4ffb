package fx

import (
	"github.com/orgball2608/tweet-fetcher/internal/repositories/tweet"
	"go.uber.org/fx"
)

var Module = fx.Options(
	tweet.Module,
)
