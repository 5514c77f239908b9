package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Settings Settings
	Render   Render
	HTTP     HTTP
	Database Database
	Redis    Redis
	S3       S3
	SMTP     SMTP
	Storage  Storage
	Bot      Bot
}

type Settings struct {
	Debug     bool
	Timezone  string
	LogToFile bool
	LogsDir   string
}

// Render holds the defaults applied to requests that name no preset.
type Render struct {
	SizePx          int
	Foreground      string
	Background      string
	CornerRadiusPx  int
	MarginModules   float64
	ErrorCorrection string
	CacheTTL        time.Duration
}

type HTTP struct {
	Enabled        bool
	Host           string
	Port           int
	BodyLimitBytes int
	RateLimit      int
	RateWindow     time.Duration
}

// Addr is the listen address.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type S3 struct {
	Endpoint        string
	AccountID       string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Prefix          string
	PublicURL       string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Domain   string
}

type Storage struct {
	Dir string
}

type Bot struct {
	Token      string
	LayoutPath string
	ExportChat int64
	Logging    BotLogging
}

// BotLogging forwards log entries to a Telegram channel.
type BotLogging struct {
	Enabled   bool
	ChannelID int64
	Locale    string
	Level     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("settings.timezone", "UTC")
	v.SetDefault("settings.logs-dir", "logs")

	v.SetDefault("render.size", 300)
	v.SetDefault("render.foreground", "#000000")
	v.SetDefault("render.background", "#ffffff")
	v.SetDefault("render.corner-radius", 0)
	v.SetDefault("render.margin", 1)
	v.SetDefault("render.error-correction", "H")
	v.SetDefault("render.cache-ttl", "24h")

	v.SetDefault("service.http.enabled", true)
	v.SetDefault("service.http.host", "0.0.0.0")
	v.SetDefault("service.http.port", 8080)
	v.SetDefault("service.http.body-limit", 8<<20)
	v.SetDefault("service.http.rate-limit", 60)
	v.SetDefault("service.http.rate-window", "1m")

	v.SetDefault("service.database.port", 5432)
	v.SetDefault("service.database.ssl-mode", "disable")
	v.SetDefault("service.redis.port", "6379")
	v.SetDefault("service.smtp.port", 587)

	v.SetDefault("bot.layout", "telegram.yml")
	v.SetDefault("bot.logging.locale", "en")
	v.SetDefault("bot.logging.level", 2)
}

// Load reads an optional .env file, then config.yaml from the given
// directories (the working directory when none are given). Environment
// variables override the file: service.redis.host is SERVICE_REDIS_HOST.
func Load(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		Settings: Settings{
			Debug:     v.GetBool("settings.debug"),
			Timezone:  v.GetString("settings.timezone"),
			LogToFile: v.GetBool("settings.log-to-file"),
			LogsDir:   v.GetString("settings.logs-dir"),
		},
		Render: Render{
			SizePx:          v.GetInt("render.size"),
			Foreground:      v.GetString("render.foreground"),
			Background:      v.GetString("render.background"),
			CornerRadiusPx:  v.GetInt("render.corner-radius"),
			MarginModules:   v.GetFloat64("render.margin"),
			ErrorCorrection: v.GetString("render.error-correction"),
			CacheTTL:        v.GetDuration("render.cache-ttl"),
		},
		HTTP: HTTP{
			Enabled:        v.GetBool("service.http.enabled"),
			Host:           v.GetString("service.http.host"),
			Port:           v.GetInt("service.http.port"),
			BodyLimitBytes: v.GetInt("service.http.body-limit"),
			RateLimit:      v.GetInt("service.http.rate-limit"),
			RateWindow:     v.GetDuration("service.http.rate-window"),
		},
		Database: Database{
			Host:     v.GetString("service.database.host"),
			Port:     v.GetInt("service.database.port"),
			User:     v.GetString("service.database.user"),
			Password: v.GetString("service.database.password"),
			Name:     v.GetString("service.database.name"),
			SSLMode:  v.GetString("service.database.ssl-mode"),
		},
		Redis: Redis{
			Host:     v.GetString("service.redis.host"),
			Port:     v.GetString("service.redis.port"),
			Password: v.GetString("service.redis.password"),
			DB:       v.GetInt("service.redis.db"),
		},
		S3: S3{
			Endpoint:        v.GetString("service.s3.endpoint"),
			AccountID:       v.GetString("service.s3.account-id"),
			Region:          v.GetString("service.s3.region"),
			AccessKeyID:     v.GetString("service.s3.access-key-id"),
			SecretAccessKey: v.GetString("service.s3.secret-access-key"),
			Bucket:          v.GetString("service.s3.bucket"),
			Prefix:          v.GetString("service.s3.prefix"),
			PublicURL:       v.GetString("service.s3.public-url"),
		},
		SMTP: SMTP{
			Host:     v.GetString("service.smtp.host"),
			Port:     v.GetInt("service.smtp.port"),
			Username: v.GetString("service.smtp.username"),
			Password: v.GetString("service.smtp.password"),
			From:     v.GetString("service.smtp.email"),
			To:       v.GetString("service.smtp.to"),
			Domain:   v.GetString("service.smtp.domain"),
		},
		Storage: Storage{
			Dir: v.GetString("service.storage.dir"),
		},
		Bot: Bot{
			Token:      v.GetString("bot.token"),
			LayoutPath: v.GetString("bot.layout"),
			ExportChat: v.GetInt64("bot.export-chat-id"),
			Logging: BotLogging{
				Enabled:   v.GetBool("bot.logging.log-to-channel"),
				ChannelID: v.GetInt64("bot.logging.channel-id"),
				Locale:    v.GetString("bot.logging.locale"),
				Level:     v.GetInt("bot.logging.level"),
			},
		},
	}, nil
}
