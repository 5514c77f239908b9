package bot

import (
	"fmt"

	"github.com/nlypage/intele"
	"go.uber.org/zap/zapcore"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/layout"

	"github.com/Badsnus/qrstudio/internal/adapters/config"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
)

type Bot struct {
	*tele.Bot
	Layout *layout.Layout
	Logger *types.Logger
	Input  *intele.InputManager
	Debug  bool
}

func New(cfg config.Bot, debug bool) (*Bot, error) {
	layoutPath := cfg.LayoutPath
	if layoutPath == "" {
		layoutPath = "telegram.yml"
	}
	lt, err := layout.New(layoutPath)
	if err != nil {
		return nil, err
	}

	settings := lt.Settings()
	settings.Token = cfg.Token
	botLogger, err := logger.Named("bot")
	if err != nil {
		return nil, err
	}
	settings.OnError = func(err error, ctx tele.Context) {
		if ctx == nil || ctx.Sender() == nil {
			botLogger.Errorf("Error: %v", err)
			return
		}
		if ctx.Callback() == nil {
			botLogger.Errorf("(user: %d) | Error: %v", ctx.Sender().ID, err)
		} else {
			botLogger.Errorf("(user: %d) | unique: %s | Error: %v", ctx.Sender().ID, ctx.Callback().Unique, err)
		}
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, err
	}

	if cmds := lt.Commands(); cmds != nil {
		if err = b.SetCommands(cmds); err != nil {
			return nil, err
		}
	}

	return &Bot{
		Bot:    b,
		Layout: lt,
		Logger: botLogger,
		Input:  intele.NewInputManager(intele.InputOptions{}),
		Debug:  debug,
	}, nil
}

// ForwardLogs sends log entries at or above the configured level to a channel.
func (b *Bot) ForwardLogs(cfg config.BotLogging) error {
	notifyLogger, err := logger.Named("notify")
	if err != nil {
		return err
	}
	notifyService := service.NewNotifyService(b.Bot, b.Layout, notifyLogger)
	logHook, err := notifyService.LogHook(cfg.ChannelID, cfg.Locale, zapcore.Level(cfg.Level))
	if err != nil {
		return fmt.Errorf("failed to create notify log hook: %w", err)
	}
	logger.SetLogHook(logHook)
	return nil
}

// Start polls for updates until Stop is called.
func (b *Bot) Start() {
	b.Logger.Infof("Bot @%s starting", b.Me.Username)
	b.Bot.Start()
}
