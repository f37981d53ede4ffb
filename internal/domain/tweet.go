package domain

import "time"

type TweetType string

const (
	TweetTypeRetweet TweetType = "retweet"
	TweetTypeQuoted  TweetType = "quoted"
	TweetTypeReply   TweetType = "reply"
	TweetTypeTweet   TweetType = "tweet"
)

// Tweet is a normalized post as kept in the per-account JSON file.
type Tweet struct {
	ID        string    `json:"id"`
	CreatedAt string    `json:"created_at,omitempty"` // RFC 3339, empty when unknown
	Text      string    `json:"text"`
	Author    Author    `json:"author"`
	Stats     Stats     `json:"stats"`
	Media     []Media   `json:"media"`
	Permalink string    `json:"permalink"`
	Type      TweetType `json:"type"`
}

type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type Stats struct {
	Likes    int `json:"likes"`
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
	Views    int `json:"views"`
}

type Media struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"` // photo or video
	URL     string `json:"url,omitempty"`
	Preview string `json:"preview,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RubyDate, // Twitter v1.1 created_at
}

// Time parses CreatedAt. Missing or unparseable values yield the zero time so
// they sort as the oldest entries.
func (t Tweet) Time() time.Time {
	if t.CreatedAt == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, t.CreatedAt); err == nil {
			return ts
		}
	}
	return time.Time{}
}
