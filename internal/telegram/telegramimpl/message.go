package telegramimpl

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/tweet-fetcher/internal/telegram"
)

// SendMessageToChannel sends a MarkdownV2 text message to the configured channel
func (tg *TelegramImpl) SendMessageToChannel(text string) error {
	if tg.Channel == "" {
		return telegram.ErrChannelNotConfigured
	}

	channelName := "@" + strings.TrimPrefix(tg.Channel, "@")
	msg := tgbotapi.NewMessageToChannel(channelName, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	sent, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message to channel",
			"channel", channelName,
			"error", err)
		return fmt.Errorf("failed to send message to %s: %w", channelName, err)
	}

	tg.Logger.Debug("Message sent to channel",
		"channel", channelName,
		"messageID", sent.MessageID)
	return nil
}
