package telegram

import (
	"bytes"
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"

	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
)

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Sink uploads artifacts to a chat and returns the Telegram file ID, so the
// bot can resend them without uploading again.
type Sink struct {
	bot  sender
	chat tele.Recipient
}

func New(bot sender, chat tele.Recipient) *Sink {
	return &Sink{
		bot:  bot,
		chat: chat,
	}
}

func (s *Sink) Name() string {
	return "telegram"
}

func (s *Sink) Put(ctx context.Context, artifact qr.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file := tele.FromReader(bytes.NewReader(artifact.Data))
	var what interface{}
	if artifact.Format == qr.FormatPNG {
		what = &tele.Photo{File: file, Caption: artifact.Key}
	} else {
		what = &tele.Document{File: file, FileName: artifact.Filename(), MIME: artifact.Format.ContentType(), Caption: artifact.Key}
	}

	msg, err := s.bot.Send(s.chat, what)
	if err != nil {
		return "", fmt.Errorf("failed to send export to chat: %w", err)
	}
	switch {
	case msg.Photo != nil:
		return "tg://file/" + msg.Photo.FileID, nil
	case msg.Document != nil:
		return "tg://file/" + msg.Document.FileID, nil
	}
	return "", fmt.Errorf("chat reply carries no file")
}
