package repositories

import (
	"github.com/Masterminds/squirrel"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

var SqBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var ErrBadQuery = errors.New("bad query")
