package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hotspotpay/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hotspotpay"

type CacheService interface {
	// Plan catalog
	GetPlans(ctx context.Context) ([]*models.Plan, error)
	SetPlans(ctx context.Context, plans []*models.Plan, ttl time.Duration) error
	InvalidatePlans(ctx context.Context) error

	// Terminal transactions only; pending ones must always be read from the database.
	GetTransaction(ctx context.Context, checkoutRequestID string) (*models.Transaction, error)
	SetTransaction(ctx context.Context, txn *models.Transaction, ttl time.Duration) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

// parseRedisAddr strips a redis:// or rediss:// scheme so the value can be used as host:port.
func parseRedisAddr(addr string) string {
	for _, scheme := range []string{"redis://", "rediss://"} {
		if strings.HasPrefix(addr, scheme) {
			return strings.TrimSuffix(strings.TrimPrefix(addr, scheme), "/")
		}
	}
	return addr
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := parseRedisAddr(addr)

	log.Printf("DEBUG: Creating Redis client with address: %s", parsedAddr)

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	} else {
		log.Printf("DEBUG: Redis connection established successfully")
	}

	return &redisCacheService{client: client}
}

func plansKey() string {
	return keyPrefix + ":plans"
}

func transactionKey(checkoutRequestID string) string {
	return fmt.Sprintf("%s:txn:%s", keyPrefix, checkoutRequestID)
}

func rateLimitKey(key string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, key)
}

func (r *redisCacheService) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetPlans(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	found, err := r.getJSON(ctx, plansKey(), &plans)
	if err != nil || !found {
		return nil, err
	}
	return plans, nil
}

func (r *redisCacheService) SetPlans(ctx context.Context, plans []*models.Plan, ttl time.Duration) error {
	return r.setJSON(ctx, plansKey(), plans, ttl)
}

func (r *redisCacheService) InvalidatePlans(ctx context.Context) error {
	return r.client.Del(ctx, plansKey()).Err()
}

func (r *redisCacheService) GetTransaction(ctx context.Context, checkoutRequestID string) (*models.Transaction, error) {
	var txn models.Transaction
	found, err := r.getJSON(ctx, transactionKey(checkoutRequestID), &txn)
	if err != nil || !found {
		return nil, err
	}
	return &txn, nil
}

func (r *redisCacheService) SetTransaction(ctx context.Context, txn *models.Transaction, ttl time.Duration) error {
	if txn.CheckoutRequestID == nil || !txn.Status.IsTerminal() {
		return nil
	}
	return r.setJSON(ctx, transactionKey(*txn.CheckoutRequestID), txn, ttl)
}

// IsRateLimited counts a hit in a fixed window. INCR and EXPIRE NX run in one
// MULTI/EXEC so the counter never outlives the window, and later hits do not push it back.
func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := rateLimitKey(key)

	var count *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		count = pipe.Incr(ctx, cacheKey)
		pipe.ExpireNX(ctx, cacheKey, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return count.Val() > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
