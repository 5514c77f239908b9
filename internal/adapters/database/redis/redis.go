package redis

import (
	"context"
	"fmt"

	"github.com/Badsnus/qrstudio/internal/adapters/database/redis/exports"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Exports *exports.Storage

	conn *redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func New(ctx context.Context, opts Options) (*Client, error) {
	exportStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := exportStorage.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping export storage: %w", err)
	}

	return &Client{
		Exports: exports.NewStorage(exportStorage),
		conn:    exportStorage,
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
