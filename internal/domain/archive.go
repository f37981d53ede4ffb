package domain

import "time"

// ArchivedTweet is the identity of an accepted tweet mirrored to the archive database.
type ArchivedTweet struct {
	ID        int
	TweetID   string
	Username  string
	Permalink string
	TweetType TweetType
	PostedAt  *time.Time
	CreatedAt time.Time
}

// NewArchivedTweet keeps the fields of t worth querying later.
func NewArchivedTweet(t Tweet) ArchivedTweet {
	a := ArchivedTweet{
		TweetID:   t.ID,
		Username:  t.Author.Username,
		Permalink: t.Permalink,
		TweetType: t.Type,
	}
	if posted := t.Time(); !posted.IsZero() {
		a.PostedAt = &posted
	}
	return a
}
