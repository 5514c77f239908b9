package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
	"gorm.io/gorm"

	"github.com/Badsnus/qrstudio/cmd/bot"
	"github.com/Badsnus/qrstudio/internal/adapters/config"
	"github.com/Badsnus/qrstudio/internal/adapters/controller/http/handlers"
	httpSetup "github.com/Badsnus/qrstudio/internal/adapters/controller/http/setup"
	botSetup "github.com/Badsnus/qrstudio/internal/adapters/controller/telegram/setup"
	"github.com/Badsnus/qrstudio/internal/adapters/database/postgres"
	"github.com/Badsnus/qrstudio/internal/adapters/database/redis"
	"github.com/Badsnus/qrstudio/internal/adapters/storage/file"
	"github.com/Badsnus/qrstudio/internal/adapters/storage/s3"
	"github.com/Badsnus/qrstudio/internal/adapters/storage/telegram"
	"github.com/Badsnus/qrstudio/internal/domain/service"
	"github.com/Badsnus/qrstudio/pkg/logger"
	"github.com/Badsnus/qrstudio/pkg/logger/types"
	qr "github.com/Badsnus/qrstudio/pkg/qrcode"
	"github.com/Badsnus/qrstudio/pkg/smtp"
)

const shutdownTimeout = 10 * time.Second

// Studio owns every configured transport and backend.
type Studio struct {
	cfg    *config.Config
	logger *types.Logger

	db    *gorm.DB
	redis *redis.Client
	bot   *bot.Bot
	http  *fiber.App

	QrService *service.QrService
}

// New connects the optional backends named in cfg and builds the transports.
// Backends without configuration are skipped.
func New(ctx context.Context, cfg *config.Config) (*Studio, error) {
	log, err := logger.Named("studio")
	if err != nil {
		return nil, err
	}
	s := &Studio{cfg: cfg, logger: log}

	defaults, err := RenderDefaults(cfg.Render)
	if err != nil {
		return nil, err
	}
	qrLogger, err := logger.Named("qr")
	if err != nil {
		return nil, err
	}
	renderLogger, err := logger.Named("render")
	if err != nil {
		return nil, err
	}
	serviceCfg := service.QrServiceConfig{
		Renderer: qr.NewRenderer(qr.RendererConfig{Logger: renderLogger.SugaredLogger}),
		Defaults: defaults,
		CacheTTL: cfg.Render.CacheTTL,
		Logger:   qrLogger,
	}

	if err = s.connect(ctx, &serviceCfg); err != nil {
		s.close()
		return nil, err
	}
	s.QrService = service.NewQrService(serviceCfg)

	if s.bot != nil {
		botSetup.Setup(s.bot, s.QrService)
	}
	if cfg.HTTP.Enabled {
		httpLogger, errNamed := logger.Named("http")
		if errNamed != nil {
			s.close()
			return nil, errNamed
		}
		s.http = httpSetup.New(handlers.New(s.QrService, httpLogger), httpSetup.Options{
			BodyLimitBytes: cfg.HTTP.BodyLimitBytes,
			RateLimit:      cfg.HTTP.RateLimit,
			RateWindow:     cfg.HTTP.RateWindow,
			Debug:          cfg.Settings.Debug,
		})
	}
	return s, nil
}

func (s *Studio) connect(ctx context.Context, serviceCfg *service.QrServiceConfig) error {
	cfg := s.cfg

	if cfg.Database.Host != "" {
		db, err := postgres.Open(postgres.Options{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
			TimeZone: cfg.Settings.Timezone,
			Debug:    cfg.Settings.Debug,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s.db = db
		serviceCfg.Storage = postgres.NewExportStorage(db)
		s.logger.Infof("export history stored in postgres %s:%d", cfg.Database.Host, cfg.Database.Port)
	}

	if cfg.Redis.Host != "" {
		client, err := redis.New(ctx, redis.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redis = client
		serviceCfg.Cache = client.Exports
		s.logger.Infof("render cache in redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
	}

	if cfg.Storage.Dir != "" {
		sink, err := file.New(cfg.Storage.Dir)
		if err != nil {
			return err
		}
		serviceCfg.Sinks = append(serviceCfg.Sinks, sink)
	}

	if cfg.S3.Bucket != "" {
		sink, err := s3.New(ctx, s3.Options{
			Endpoint:        cfg.S3.Endpoint,
			AccountID:       cfg.S3.AccountID,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			PublicURL:       cfg.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create s3 sink: %w", err)
		}
		serviceCfg.Sinks = append(serviceCfg.Sinks, sink)
	}

	if cfg.SMTP.Host != "" && cfg.SMTP.To != "" {
		dialer := smtp.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password)
		serviceCfg.Sinks = append(serviceCfg.Sinks, smtp.NewClient(dialer, smtp.Options{
			From:   cfg.SMTP.From,
			To:     cfg.SMTP.To,
			Domain: cfg.SMTP.Domain,
		}))
	}

	if cfg.Bot.Token != "" {
		b, err := bot.New(cfg.Bot, cfg.Settings.Debug)
		if err != nil {
			return fmt.Errorf("failed to create bot: %w", err)
		}
		s.bot = b

		if cfg.Bot.ExportChat != 0 {
			chat, errChat := b.ChatByID(cfg.Bot.ExportChat)
			if errChat != nil {
				return fmt.Errorf("failed to resolve export chat: %w", errChat)
			}
			serviceCfg.Sinks = append(serviceCfg.Sinks, telegram.New(b.Bot, chat))
		}
		if cfg.Bot.Logging.Enabled {
			if err = b.ForwardLogs(cfg.Bot.Logging); err != nil {
				return err
			}
		}
	}

	for _, sink := range serviceCfg.Sinks {
		s.logger.Infof("export sink %q enabled", sink.Name())
	}
	return nil
}

// Start serves every configured transport until ctx is done or one of them
// fails, then releases the backends.
func (s *Studio) Start(ctx context.Context) error {
	defer s.close()
	if s.http == nil && s.bot == nil {
		return errors.New("nothing to run: enable the http service or set a bot token")
	}

	g, ctx := errgroup.WithContext(ctx)
	if s.http != nil {
		addr := s.cfg.HTTP.Addr()
		g.Go(func() error {
			s.logger.Infof("http listening on %s", addr)
			return s.http.Listen(addr)
		})
		g.Go(func() error {
			<-ctx.Done()
			return s.http.ShutdownWithTimeout(shutdownTimeout)
		})
	}
	if s.bot != nil {
		g.Go(func() error {
			s.bot.Start()
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			s.bot.Stop()
			return nil
		})
	}

	err := g.Wait()
	s.logger.Infof("stopped")
	return err
}

// Bot is the Telegram bot, nil without a token.
func (s *Studio) Bot() *tele.Bot {
	if s.bot == nil {
		return nil
	}
	return s.bot.Bot
}

// App is the fiber application, nil when http is disabled.
func (s *Studio) App() *fiber.App {
	return s.http
}

func (s *Studio) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warnf("failed to close redis: %v", err)
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// RenderDefaults turns the render section into the options used when a
// request names no preset.
func RenderDefaults(cfg config.Render) (qr.Options, error) {
	opts := qr.DefaultOptions()
	if cfg.SizePx != 0 {
		opts.SizePx = cfg.SizePx
	}
	if cfg.Foreground != "" {
		opts.Foreground = cfg.Foreground
	}
	if cfg.Background != "" {
		opts.Background = cfg.Background
	}
	opts.CornerRadiusPx = cfg.CornerRadiusPx
	opts.MarginModules = cfg.MarginModules
	if cfg.ErrorCorrection != "" {
		level, err := qr.ParseECLevel(cfg.ErrorCorrection)
		if err != nil {
			return qr.Options{}, err
		}
		opts.ErrorCorrection = level
	}
	for _, color := range []string{opts.Foreground, opts.Background} {
		if _, err := qr.CanonicalColor(color); err != nil {
			return qr.Options{}, err
		}
	}
	return opts, opts.Validate()
}
