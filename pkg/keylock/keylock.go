package keylock

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout возвращается, когда блокировку не удалось получить до отмены контекста
var ErrLockTimeout = errors.New("keylock: lock acquisition timed out")

// Locker сериализует операции по ключу
// Release должен быть вызван ровно один раз
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker блокировки по ключу внутри одного процесса
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, entry)
		return nil, errors.Join(ErrLockTimeout, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.releaseRef(key, entry)
		})
	}, nil
}

// releaseRef удаляет запись, когда ключ больше никто не ждет
func (l *LocalLocker) releaseRef(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// size количество ключей с держателями или ожидающими (для тестов)
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
