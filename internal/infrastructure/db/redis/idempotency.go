package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingTTL bounds how long a crashed request can hold a key.
	pendingTTL    = 30 * time.Second
	pendingMarker = "pending"
)

// IdempotencyStore remembers which escrow an Idempotency-Key produced.
// Key format: idem:createEscrow:<buyer_id>:<key>
// The value is "pending" while the first request runs, then the escrow ID.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key with SET NX. When another request holds it, the stored
// escrow ID is returned, or 0 while that request is still running.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (bool, int64, error) {
	k := idempotencyKey(scope, key)
	ok, err := s.client.SetNX(ctx, k, pendingMarker, pendingTTL).Result()
	if err != nil {
		return false, 0, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	raw, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released or expired between the two calls; treat as in flight.
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("idempotency reserve: %w", err)
	}
	return parseReservation(raw)
}

// Complete records the escrow a reserved key produced.
func (s *IdempotencyStore) Complete(ctx context.Context, scope, key string, escrowID int64) error {
	if err := s.client.Set(ctx, idempotencyKey(scope, key), strconv.FormatInt(escrowID, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release drops a reservation whose request failed, so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func parseReservation(raw string) (bool, int64, error) {
	if raw == pendingMarker {
		return false, 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return false, 0, fmt.Errorf("idempotency reserve: corrupt value %q", raw)
	}
	return false, id, nil
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idem:createEscrow:%s:%s", scope, key)
}
