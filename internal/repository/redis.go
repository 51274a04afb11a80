package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	client := redis.NewClient(options)

	return client
}

func NewRedisViewCache(client *redis.Client, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{
		client: client,
		ttl:    ttl,
	}
}

func viewKey(itemID, viewerID int64) string {
	return fmt.Sprintf("item_view:%d:%d", itemID, viewerID)
}

// itemKeySet хранит ключи представлений конкретной вещи, чтобы
// инвалидация не требовала SCAN по всей базе.
func itemKeySet(itemID int64) string {
	return fmt.Sprintf("item_view_keys:%d", itemID)
}

func (r *RedisViewCache) GetItemView(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, viewKey(itemID, viewerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item view from redis: %w", err)
	}

	var view models.ItemView
	if err := json.Unmarshal([]byte(val), &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item view: %w", err)
	}

	return &view, nil
}

func (r *RedisViewCache) SetItemView(ctx context.Context, viewerID int64, view *models.ItemView) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal item view: %w", err)
	}

	key := viewKey(view.ID, viewerID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set item view in redis: %w", err)
	}

	set := itemKeySet(view.ID)
	if err := r.client.SAdd(ctx, set, key).Err(); err != nil {
		return fmt.Errorf("failed to track item view key: %w", err)
	}
	r.client.Expire(ctx, set, r.ttl)

	return nil
}

func (r *RedisViewCache) InvalidateItem(ctx context.Context, itemID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	set := itemKeySet(itemID)
	keys, err := r.client.SMembers(ctx, set).Result()
	if err != nil {
		return fmt.Errorf("failed to list item view keys: %w", err)
	}

	keys = append(keys, set)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete item views from redis: %w", err)
	}
	return nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
