package setup

import (
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"

	"github.com/Badsnus/qrstudio/cmd/bot"
	"github.com/Badsnus/qrstudio/internal/adapters/controller/telegram/handlers/middlewares"
	"github.com/Badsnus/qrstudio/internal/adapters/controller/telegram/handlers/render"
	"github.com/Badsnus/qrstudio/internal/domain/service"
)

func Setup(b *bot.Bot, qrService *service.QrService) {
	middle := middlewares.New(b)
	renderHandler := render.New(b, qrService)

	if b.Debug {
		b.Use(middleware.Logger())
	}
	b.Use(b.Layout.Middleware("en"))
	b.Use(middleware.AutoRespond())
	b.Use(middle.ResetInputOnBack)
	b.Handle(tele.OnText, b.Input.Handler())

	b.Handle("/start", renderHandler.Start)
	b.Handle("/help", renderHandler.Start)
	b.Handle("/qr", renderHandler.Qr)
	b.Handle("/presets", renderHandler.Presets)
	b.Handle(tele.OnPhoto, renderHandler.Photo)
	b.Handle(b.Layout.Callback("cancel"), renderHandler.Cancel)
}
