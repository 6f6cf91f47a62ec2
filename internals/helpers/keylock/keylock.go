// Package keylock serializes work per string key (mis. project+contributor+tanggal absensi).
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Locker mengunci satu key; unlock wajib dipanggil sekali.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

/* ===================== In-process ===================== */

type slot struct {
	ch   chan struct{}
	refs int
}

// MemoryLocker: mutex per key dalam satu proses. Slot dihapus saat tidak ada yang menunggu.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]*slot)}
}

func (l *MemoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-s.ch
				l.release(key, s)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, s)
		return nil, ctx.Err()
	}
}

func (l *MemoryLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

/* ===================== Redis ===================== */

var ErrLockTimeout = errors.New("keylock: timed out waiting for lock")

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisLocker: SET NX PX + compare-and-delete, untuk deployment multi-instance.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, retry: 50 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	full := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, full, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					// context sendiri: unlock tetap jalan walau ctx request sudah cancel
					uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = unlockScript.Run(uctx, l.client, []string{full}, token).Err()
				})
			}, nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
