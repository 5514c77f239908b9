package middlewares

import (
	"strings"

	"github.com/nlypage/intele"
	tele "gopkg.in/telebot.v3"

	"github.com/Badsnus/qrstudio/cmd/bot"
)

type Handler struct {
	input *intele.InputManager
}

func New(b *bot.Bot) *Handler {
	return &Handler{input: b.Input}
}

// ResetInputOnBack cancels a pending input when the user presses cancel or
// sends another command.
func (h Handler) ResetInputOnBack(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil {
			return next(c)
		}
		if c.Callback() != nil {
			data, unique := c.Callback().Data, c.Callback().Unique
			if strings.Contains(data, "back") || strings.Contains(unique, "back") || unique == "cancel" {
				h.input.Cancel(c.Sender().ID)
			}
		}
		if c.Message() != nil && strings.HasPrefix(c.Message().Text, "/") {
			h.input.Cancel(c.Sender().ID)
		}
		return next(c)
	}
}
