package service

import (
	"strings"

	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"

	"github.com/Badsnus/qrstudio/pkg/logger/types"
)

type notifyBot interface {
	ChatByID(id int64) (*tele.Chat, error)
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type textLayout interface {
	TextLocale(locale, k string, args ...interface{}) string
}

// NotifyService forwards log entries to a Telegram channel.
type NotifyService struct {
	bot    notifyBot
	layout textLayout
	logger *types.Logger
}

func NewNotifyService(bot notifyBot, layout textLayout, logger *types.Logger) *NotifyService {
	return &NotifyService{
		bot:    bot,
		layout: layout,
		logger: logger,
	}
}

// LogHook returns a log hook for the specified channel
//
// Parameters:
//   - channelID is the channel to send the log to
//   - locale is the locale to use for the layout
//   - level is the minimum log level to send
func (s *NotifyService) LogHook(channelID int64, locale string, level zapcore.Level) (types.LogHook, error) {
	chat, err := s.bot.ChatByID(channelID)
	if err != nil {
		return nil, err
	}
	return func(log types.Log) {
		if log.Level < level || strings.Contains(log.Message, "failed to send log to channel") {
			return
		}
		text := s.layout.TextLocale(locale, "log", log)
		if text == "" {
			text = log.String()
		}
		if _, errSend := s.bot.Send(chat, text); errSend != nil {
			s.logger.Errorf("failed to send log to channel %d: %v", channelID, errSend)
		}
	}, nil
}
