package twitterimpl

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/internal/twitter"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
)

const permalinkFormat = "https://x.com/%s/status/%s"

type apiMetrics struct {
	RetweetCount    int  `json:"retweet_count"`
	ReplyCount      int  `json:"reply_count"`
	LikeCount       int  `json:"like_count"`
	QuoteCount      int  `json:"quote_count"`
	ImpressionCount *int `json:"impression_count"`
}

type apiReference struct {
	Type string `json:"type"` // retweeted, quoted, replied_to
	ID   string `json:"id"`
}

type apiTweet struct {
	ID               string         `json:"id"`
	Text             string         `json:"text"`
	AuthorID         string         `json:"author_id"`
	CreatedAt        *time.Time     `json:"created_at"`
	PublicMetrics    *apiMetrics    `json:"public_metrics"`
	ReferencedTweets []apiReference `json:"referenced_tweets"`
	Attachments      *struct {
		MediaKeys []string `json:"media_keys"`
	} `json:"attachments"`
}

type apiVariant struct {
	BitRate     int    `json:"bit_rate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type apiMedia struct {
	MediaKey        string       `json:"media_key"`
	Type            string       `json:"type"` // photo, video, animated_gif
	URL             string       `json:"url"`
	PreviewImageURL string       `json:"preview_image_url"`
	AltText         string       `json:"alt_text"`
	Variants        []apiVariant `json:"variants"`
}

type timelineResponse struct {
	Data     []apiTweet `json:"data"`
	Includes struct {
		Media []apiMedia `json:"media"`
	} `json:"includes"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
	Errors []apiError `json:"errors"`
}

// GetTweets pages through the user's timeline, up to maxPages pages.
func (t *TwitterImpl) GetTweets(ctx context.Context, username string, fn twitter.TweetProcessorFunc) error {
	user, err := t.lookupUser(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			t.logger.Warn("Account not found, nothing to fetch", "username", username, "error", err)
			return nil
		}
		return fmt.Errorf("lookup user %s: %w", username, err)
	}

	query := url.Values{
		"max_results":  {strconv.Itoa(t.maxResults)},
		"tweet.fields": {"created_at,public_metrics,referenced_tweets,attachments,author_id"},
		"expansions":   {"attachments.media_keys"},
		"media.fields": {"url,preview_image_url,type,variants,alt_text"},
	}
	path := "/2/users/" + url.PathEscape(user.ID) + "/tweets"

	for page := 0; page < t.maxPages; page++ {
		var resp timelineResponse
		if err := t.getJSON(ctx, "GetTimeline", path, query, &resp); err != nil {
			return fmt.Errorf("get timeline page %d for %s: %w", page+1, username, err)
		}

		media := make(map[string]apiMedia, len(resp.Includes.Media))
		for _, m := range resp.Includes.Media {
			media[m.MediaKey] = m
		}

		t.logger.Debug("Fetched timeline page", "username", username, "page", page+1, "count", resp.Meta.ResultCount)

		for _, tw := range resp.Data {
			if err := fn(toRawTweet(tw, user, media)); err != nil {
				return err
			}
		}

		if resp.Meta.NextToken == "" {
			return nil
		}
		query.Set("pagination_token", resp.Meta.NextToken)
	}

	return nil
}

func toRawTweet(tw apiTweet, user *apiUser, media map[string]apiMedia) domain.RawTweet {
	raw := domain.RawTweet{
		ID:           tw.ID,
		TimeParsed:   tw.CreatedAt,
		Text:         tw.Text,
		UserID:       user.ID,
		Username:     user.Username,
		Name:         user.Name,
		PermanentURL: fmt.Sprintf(permalinkFormat, user.Username, tw.ID),
	}

	if m := tw.PublicMetrics; m != nil {
		raw.Likes = &m.LikeCount
		raw.Replies = &m.ReplyCount
		raw.Retweets = &m.RetweetCount
		raw.Views = m.ImpressionCount
	}

	for _, ref := range tw.ReferencedTweets {
		switch ref.Type {
		case "retweeted":
			raw.IsRetweet = true
		case "quoted":
			raw.IsQuoted = true
		case "replied_to":
			raw.IsReply = true
		}
	}

	if tw.Attachments != nil {
		for _, key := range tw.Attachments.MediaKeys {
			m, ok := media[key]
			if !ok {
				continue
			}
			switch m.Type {
			case "photo":
				raw.Photos = append(raw.Photos, domain.RawPhoto{ID: m.MediaKey, URL: m.URL, AltText: m.AltText})
			case "video", "animated_gif":
				raw.Videos = append(raw.Videos, domain.RawVideo{ID: m.MediaKey, Preview: m.PreviewImageURL, URL: bestVariant(m.Variants)})
			}
		}
	}

	return raw
}

// bestVariant picks the highest bitrate mp4.
func bestVariant(variants []apiVariant) string {
	best := ""
	bestRate := -1
	for _, v := range variants {
		if v.ContentType != "video/mp4" {
			continue
		}
		if v.BitRate > bestRate {
			best = v.URL
			bestRate = v.BitRate
		}
	}
	return best
}
