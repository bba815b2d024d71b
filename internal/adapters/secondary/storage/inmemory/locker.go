package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/Mel762/telegramTarorApp/internal/ports/cache"
)

// Locker in-memory блокировки с TTL для запуска без Redis (одна реплика)
type Locker struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> истекает в
	now   func() time.Time
}

var _ cache.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]time.Time),
		now:   time.Now,
	}
}

// TryLock захватывает ключ, если он свободен или блокировка истекла
func (l *Locker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiresAt, ok := l.locks[key]; ok && now.Before(expiresAt) {
		return false, nil
	}

	l.locks[key] = now.Add(ttl)
	l.evictExpired(now)
	return true, nil
}

func (l *Locker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}

// evictExpired ключи claim'ов живут не дольше суток, карта не растёт бесконечно
func (l *Locker) evictExpired(now time.Time) {
	for key, expiresAt := range l.locks {
		if !now.Before(expiresAt) {
			delete(l.locks, key)
		}
	}
}
