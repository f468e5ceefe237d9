package http

import (
	"errors"
	"testing"
	"time"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Once(key string, ttl time.Duration, fn func() error) error { return fn() }

func (c *memCache) Set(key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Get(key string) ([]byte, error) {
	value, ok := c.data[key]
	if !ok {
		return nil, errors.New("нет ключа")
	}
	return value, nil
}

func TestSessionsRoundTrip(t *testing.T) {
	sessions := NewSessions("секрет", newMemCache(), time.Hour)

	token := sessions.Issue("u1")
	uid, err := sessions.Verify(token)
	if err != nil {
		t.Fatalf("валидный токен должен проходить: %v", err)
	}
	if uid != "u1" {
		t.Fatalf("ожидали u1, получили %q", uid)
	}
}

func TestSessionsRejectsTamperedToken(t *testing.T) {
	sessions := NewSessions("секрет", newMemCache(), time.Hour)

	token := sessions.Issue("u1")
	if _, err := sessions.Verify("u2" + token[2:]); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("подменённый uid должен отклоняться, получили %v", err)
	}
	other := NewSessions("другой-секрет", newMemCache(), time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("чужая подпись должна отклоняться, получили %v", err)
	}
}

func TestSessionsExpiry(t *testing.T) {
	sessions := NewSessions("секрет", newMemCache(), -time.Hour)

	token := sessions.Issue("u1")
	if _, err := sessions.Verify(token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("просроченный токен должен отклоняться, получили %v", err)
	}
}

func TestSessionsRevoke(t *testing.T) {
	sessions := NewSessions("секрет", newMemCache(), time.Hour)

	token := sessions.Issue("u1")
	if err := sessions.Revoke(token); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := sessions.Verify(token); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("отозванный токен должен отклоняться, получили %v", err)
	}
}
