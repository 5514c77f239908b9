package postgres

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
	Debug    bool
}

// DSN builds the libpq connection string.
func (o Options) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		o.User,
		o.Password,
		o.Name,
		o.Host,
		o.Port,
		sslMode,
	)
	if o.TimeZone != "" {
		dsn += " TimeZone=" + o.TimeZone
	}
	return dsn
}

// Open connects to postgres and applies Migrations.
func Open(opts Options) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if opts.Debug {
		gormConfig.Logger = gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold: time.Second,
				LogLevel:      gormLogger.Info,
				Colorful:      true,
			},
		)
	}

	database, err := gorm.Open(postgres.Open(opts.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err = database.AutoMigrate(Migrations...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return database, nil
}
