package telegram

import "github.com/orgball2608/tweet-fetcher/pkg/errors"

var ErrChannelNotConfigured = errors.New("telegram channel not configured")

//go:generate go run go.uber.org/mock/mockgen -source=telegram.go -destination=mocks/mock.go

type Client interface {
	// SendMessageToChannel posts a MarkdownV2 message to the configured channel.
	SendMessageToChannel(text string) error
}
