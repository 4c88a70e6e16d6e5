package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestDurationKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	base := DurationKey("/in/a.wav", 100, now)

	if !strings.HasPrefix(base, durationKeyPrefix) {
		t.Errorf("key %q lacks prefix", base)
	}
	if base != DurationKey("/in/a.wav", 100, now) {
		t.Error("key is not stable")
	}
	for _, other := range []string{
		DurationKey("/in/b.wav", 100, now),
		DurationKey("/in/a.wav", 101, now),
		DurationKey("/in/a.wav", 100, now.Add(time.Nanosecond)),
	} {
		if other == base {
			t.Errorf("distinct file identity produced the same key %q", other)
		}
	}
}

type countingProber struct {
	secs  float64
	calls int
}

func (p *countingProber) ProbeDuration(ctx context.Context, path string) (float64, error) {
	p.calls++
	return p.secs, nil
}

func TestDurationCacheFallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	wav := filepath.Join(t.TempDir(), "a.wav")
	os.WriteFile(wav, []byte("RIFF"), 0o644)

	next := &countingProber{secs: 2.5}
	c := NewDurationCache(client, next, time.Minute)
	got, err := c.ProbeDuration(context.Background(), wav)
	if err != nil || got != 2.5 {
		t.Errorf("ProbeDuration() = %v, %v, want 2.5", got, err)
	}
	if next.calls != 1 {
		t.Errorf("prober calls = %d, want 1", next.calls)
	}
}
