package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisapp "tinyrisks_admin/internal/storage/redis"

	"github.com/redis/go-redis/v9"
)

// ConsoleStateRepository keeps the persisted form state of admin consoles.
type ConsoleStateRepository interface {
	SaveState(ctx context.Context, consoleID string, state any, ttl time.Duration) error
	// GetState decodes the stored state into out and reports whether there was one.
	GetState(ctx context.Context, consoleID string, out any) (bool, error)
	DeleteState(ctx context.Context, consoleID string) error
}

type RedisConsoleStateRepo struct {
	Client *redisapp.Client
}

func NewRedisConsoleStateRepo(client *redisapp.Client) *RedisConsoleStateRepo {
	return &RedisConsoleStateRepo{Client: client}
}

func (r *RedisConsoleStateRepo) SaveState(ctx context.Context, consoleID string, state any, ttl time.Duration) error {
	const op = "repository.RedisConsoleStateRepo.SaveState"

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.Client.Set(ctx, consoleStateKey(consoleID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisConsoleStateRepo) GetState(ctx context.Context, consoleID string, out any) (bool, error) {
	const op = "repository.RedisConsoleStateRepo.GetState"

	data, err := r.Client.Get(ctx, consoleStateKey(consoleID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}

func (r *RedisConsoleStateRepo) DeleteState(ctx context.Context, consoleID string) error {
	const op = "repository.RedisConsoleStateRepo.DeleteState"

	if err := r.Client.Del(ctx, consoleStateKey(consoleID)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func consoleStateKey(consoleID string) string {
	return "console:" + consoleID
}
