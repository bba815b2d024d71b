package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
	"github.com/redis/go-redis/v9"
)

// Client обёртка над redis.Client, реализует cache.Cache и cache.Locker
type Client struct {
	client redis.UniversalClient
}

var (
	_ cache.Cache  = (*Client)(nil)
	_ cache.Locker = (*Client)(nil)
)

// NewClient создаёт новый Redis-клиент
func NewClient(client redis.UniversalClient) *Client {
	return &Client{
		client: client,
	}
}

// Get получает значение по ключу, cache.ErrCacheMiss если ключа нет
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", cache.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

// Set устанавливает значение с TTL
func (c *Client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete удаляет значение по ключу
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// TryLock SET NX с TTL, общий для всех реплик
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Unlock снимает блокировку
func (c *Client) Unlock(ctx context.Context, key string) error {
	return c.Delete(ctx, key)
}

// Ping проверка доступности для readiness
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close закрывает подключение к кэшу
func (c *Client) Close() error {
	return c.client.Close()
}
