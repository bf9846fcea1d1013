package memory

import (
	"context"
	"fmt"
	"sync"

	databaseerrors "cartstore/internal/database"
)

// Storage keeps carts in process memory. Contents are lost on restart.
type Storage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func New() *Storage {
	return &Storage{
		values: make(map[string][]byte),
	}
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "database.memory.Get"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, databaseerrors.ErrNotFound)
	}

	return append([]byte(nil), value...), nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const op = "database.memory.Set"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Close() error {
	return nil
}
