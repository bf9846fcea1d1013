package redisdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	databaseerrors "cartstore/internal/database"
	"cartstore/pkg/lib/logger/sl"

	"github.com/redis/go-redis/v9"
)

type Storage struct {
	log    *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

// Connect accepts either a redis:// URL or a bare host:port address and
// pings the server before returning.
func Connect(ctx context.Context, log *slog.Logger, redisURL string, ttl time.Duration) (*Storage, error) {
	const op = "database.redisdb.Connect"

	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			log.With("op", op).Error("Error parsing redis url", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		log.With("op", op).Error("Error connect to redis", sl.Err(err))
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithParams(log, client, ttl), nil
}

// NewWithParams wraps an existing client. A zero ttl keeps carts forever.
func NewWithParams(log *slog.Logger, client *redis.Client, ttl time.Duration) *Storage {
	return &Storage{
		log:    log,
		client: client,
		ttl:    ttl,
	}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "database.redisdb.Get"
	log := s.log.With("op", op)

	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
		}

		log.Error("Failed to read cart", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "database.redisdb.Set"
	log := s.log.With("op", op)

	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		log.Error("Failed to write cart", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}
