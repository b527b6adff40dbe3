package staging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardlens/backend/internal/domain"
)

// Each staged scan is a hash so the confirm script can flip the status
// field without rewriting the JSON payload.
//
// Return codes: 0 missing or already confirmed, 1 expired, 2 confirmed now.
var confirmScript = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status or status ~= 'PENDING' then
	return {0, ''}
end
local expires = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if expires and tonumber(ARGV[1]) > expires then
	return {1, ''}
end
redis.call('HSET', KEYS[1], 'status', 'CONFIRMED')
return {2, redis.call('HGET', KEYS[1], 'data')}
`)

var reopenScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end
redis.call('HSET', KEYS[1], 'status', 'PENDING')
return 1
`)

// RedisStore is a Redis-backed scan repository. Keys carry a physical TTL
// longer than the scan's logical lifetime, so an expired scan still answers
// "expired" instead of "not found" until Redis drops it.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(redisURL string, retention time.Duration) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, retention: retention}, nil
}

func redisKey(ownerID, scanID string) string {
	return fmt.Sprintf("cardlens:scan:%s:%s", ownerID, scanID)
}

// Save stages a scan under a physical TTL of logical lifetime plus retention
func (s *RedisStore) Save(ctx context.Context, scan *domain.ScanResult) error {
	data, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal scan: %w", err)
	}

	key := redisKey(scan.OwnerID, scan.ID)
	physicalTTL := time.Until(scan.ExpiresAt) + s.retention
	if physicalTTL <= 0 {
		physicalTTL = s.retention
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"data", data,
		"status", string(scan.Status),
		"expires_at", scan.ExpiresAt.Unix(),
	)
	pipe.Expire(ctx, key, physicalTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stage scan: %w", err)
	}
	return nil
}

// Get returns the staged scan with its current status
func (s *RedisStore) Get(ctx context.Context, ownerID, scanID string) (*domain.ScanResult, error) {
	vals, err := s.client.HMGet(ctx, redisKey(ownerID, scanID), "data", "status").Result()
	if err != nil {
		return nil, fmt.Errorf("read scan: %w", err)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, domain.ErrScanNotFound
	}

	var scan domain.ScanResult
	if err := json.Unmarshal([]byte(raw), &scan); err != nil {
		return nil, fmt.Errorf("unmarshal scan: %w", err)
	}
	if status, ok := vals[1].(string); ok {
		scan.Status = domain.ScanStatus(status)
	}
	return &scan, nil
}

// Confirm runs the compare-and-set script: the status check, the expiry
// check and the flip execute atomically inside Redis, so concurrent
// confirms for the same scan see exactly one winner.
func (s *RedisStore) Confirm(ctx context.Context, ownerID, scanID string) (*domain.ScanResult, error) {
	vals, err := confirmScript.Run(ctx, s.client,
		[]string{redisKey(ownerID, scanID)}, time.Now().Unix()).Slice()
	if err != nil {
		return nil, fmt.Errorf("confirm scan: %w", err)
	}
	if len(vals) != 2 {
		return nil, fmt.Errorf("confirm scan: unexpected reply %v", vals)
	}

	code, _ := vals[0].(int64)
	switch code {
	case 0:
		return nil, domain.ErrScanNotFound
	case 1:
		return nil, domain.ErrScanExpired
	}

	raw, _ := vals[1].(string)
	var scan domain.ScanResult
	if err := json.Unmarshal([]byte(raw), &scan); err != nil {
		return nil, fmt.Errorf("unmarshal confirmed scan: %w", err)
	}
	return &scan, nil
}

// Reopen reverts a confirmed scan to PENDING
func (s *RedisStore) Reopen(ctx context.Context, ownerID, scanID string) error {
	res, err := reopenScript.Run(ctx, s.client, []string{redisKey(ownerID, scanID)}).Int()
	if err != nil {
		return fmt.Errorf("reopen scan: %w", err)
	}
	if res == 0 {
		return domain.ErrScanNotFound
	}
	return nil
}

// Close releases the underlying connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
