package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestIdempotencyKey_Format(t *testing.T) {
	got := idempotencyKey("42", "abc-123")
	if got != "idem:createEscrow:42:abc-123" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestNewIdempotencyStore_DefaultTTL(t *testing.T) {
	s := NewIdempotencyStore(nil, 0)
	if s.ttl != defaultIdempotencyTTL {
		t.Fatalf("want default ttl %v, got %v", defaultIdempotencyTTL, s.ttl)
	}
}

func TestIdempotencyStore_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewIdempotencyStore(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if claimed, _, err := s.Reserve(ctx, "1", "k"); err == nil || claimed {
		t.Fatalf("expected reserve error, got claimed=%v err=%v", claimed, err)
	}
	if err := s.Complete(ctx, "1", "k", 9); err == nil {
		t.Fatal("expected complete error")
	}
	if err := s.Release(ctx, "1", "k"); err == nil {
		t.Fatal("expected release error")
	}
}

func TestParseReservation(t *testing.T) {
	cases := []struct {
		raw     string
		id      int64
		wantErr bool
	}{
		{"pending", 0, false},
		{"42", 42, false},
		{"0", 0, true},
		{"garbage", 0, true},
	}
	for _, tc := range cases {
		claimed, id, err := parseReservation(tc.raw)
		if claimed {
			t.Errorf("%q: an existing value is never a fresh claim", tc.raw)
		}
		if (err != nil) != tc.wantErr {
			t.Errorf("%q: unexpected error state %v", tc.raw, err)
		}
		if id != tc.id {
			t.Errorf("%q: want id %d, got %d", tc.raw, tc.id, id)
		}
	}
}
