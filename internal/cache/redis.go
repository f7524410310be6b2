package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrNoState — состояния оформления в Redis нет (истекло или не начиналось).
var ErrNoState = errors.New("checkout state not found")

type RedisClient struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisClient(addr, password string, db int, log *zap.Logger) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connected successfully", zap.String("addr", addr))

	return &RedisClient{
		client: rdb,
		log:    log,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Состояние оформления заказа

func (r *RedisClient) SetCheckoutState(ctx context.Context, owner string, state any, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("checkout:%s", owner)
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *RedisClient) GetCheckoutState(ctx context.Context, owner string, state any) error {
	key := fmt.Sprintf("checkout:%s", owner)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNoState
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, state)
}

func (r *RedisClient) DelCheckoutState(ctx context.Context, owner string) error {
	key := fmt.Sprintf("checkout:%s", owner)
	return r.client.Del(ctx, key).Err()
}

// Кулдаун повторной отправки кода

func (r *RedisClient) SetRateLimit(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, "1", ttl).Err()
}

func (r *RedisClient) CheckRateLimit(ctx context.Context, key string) (bool, error) {
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Флаг первого показа страницы подтверждения

func (r *RedisClient) MarkConfirmationSeen(ctx context.Context, orderNumber string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("order_confirmed_seen:%s", orderNumber)
	return r.client.SetNX(ctx, key, "1", ttl).Result()
}
