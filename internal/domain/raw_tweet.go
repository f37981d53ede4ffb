package domain

import "time"

// RawTweet is a tweet as handed over by the source, before normalization.
// Counters are nil when the source did not report them.
type RawTweet struct {
	ID           string
	TimeParsed   *time.Time
	Text         string
	UserID       string
	Username     string
	Name         string
	Likes        *int
	Replies      *int
	Retweets     *int
	Views        *int
	Photos       []RawPhoto
	Videos       []RawVideo
	PermanentURL string
	IsRetweet    bool
	IsQuoted     bool
	IsReply      bool
}

type RawPhoto struct {
	ID      string
	URL     string
	AltText string
}

type RawVideo struct {
	ID      string
	Preview string
	URL     string
}

// FormatTweet maps a raw tweet into the stored shape.
func FormatTweet(raw RawTweet) Tweet {
	tweet := Tweet{
		ID:   raw.ID,
		Text: raw.Text,
		Author: Author{
			ID:       raw.UserID,
			Username: raw.Username,
			Name:     raw.Name,
		},
		Stats: Stats{
			Likes:    valueOrZero(raw.Likes),
			Replies:  valueOrZero(raw.Replies),
			Retweets: valueOrZero(raw.Retweets),
			Views:    valueOrZero(raw.Views),
		},
		Media:     make([]Media, 0, len(raw.Photos)+len(raw.Videos)),
		Permalink: raw.PermanentURL,
		Type:      classify(raw),
	}

	if raw.TimeParsed != nil && !raw.TimeParsed.IsZero() {
		tweet.CreatedAt = raw.TimeParsed.UTC().Format(time.RFC3339Nano)
	}

	for _, p := range raw.Photos {
		tweet.Media = append(tweet.Media, Media{ID: p.ID, Type: "photo", URL: p.URL})
	}
	for _, v := range raw.Videos {
		tweet.Media = append(tweet.Media, Media{ID: v.ID, Type: "video", URL: v.URL, Preview: v.Preview})
	}

	return tweet
}

// FormatTweets normalizes a batch, keeping its order.
func FormatTweets(raws []RawTweet) []Tweet {
	out := make([]Tweet, 0, len(raws))
	for _, raw := range raws {
		out = append(out, FormatTweet(raw))
	}
	return out
}

func classify(raw RawTweet) TweetType {
	switch {
	case raw.IsRetweet:
		return TweetTypeRetweet
	case raw.IsQuoted:
		return TweetTypeQuoted
	case raw.IsReply:
		return TweetTypeReply
	default:
		return TweetTypeTweet
	}
}

func valueOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
