package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

const Usage = `Usage: tweet-fetcher <twitter_account> <interval_minutes>
Example: tweet-fetcher elonmusk 5`

// MaxIntervalMinutes is the longest interval that still fits in a time.Duration.
const MaxIntervalMinutes = 153722867

var (
	ErrUsage           = errors.Wrap(errors.ErrInvalidInput, "missing arguments")
	ErrInvalidInterval = errors.Wrap(errors.ErrInvalidInput, "interval must be a positive number of minutes")
)

// Args are the positional command line arguments.
type Args struct {
	Account         string `validate:"required"`
	IntervalMinutes int    `validate:"gt=0,lte=153722867"`
}

// Interval returns the poll interval as a duration.
func (a Args) Interval() time.Duration {
	return time.Duration(a.IntervalMinutes) * time.Minute
}

// ParseArgs validates os.Args[1:].
func ParseArgs(argv []string) (Args, error) {
	if len(argv) < 2 {
		return Args{}, ErrUsage
	}

	interval, err := strconv.Atoi(argv[1])
	if err != nil {
		return Args{}, fmt.Errorf("%w: %q", ErrInvalidInterval, argv[1])
	}

	args := Args{
		Account:         argv[0],
		IntervalMinutes: interval,
	}

	if err := validator.New().Struct(args); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "IntervalMinutes" {
			return Args{}, fmt.Errorf("%w: %q", ErrInvalidInterval, argv[1])
		}
		return Args{}, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	return args, nil
}
