// Package cache provides a small in-process LRU cache with TTL, used for
// computed analytics reports.
package cache

import (
	"sync"
	"time"

	plog "produtivo/internal/log"
)

// Cache is the read/write surface services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	DeletePrefix(prefix string) int
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans the caches registered with it.
type Manager struct {
	log      *plog.Logger
	caches   []Cleaner
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewManager(logger *plog.Logger) *Manager {
	if logger == nil {
		logger = plog.Discard()
	}
	return &Manager{
		log:  logger.WithComponent(plog.ComponentCache),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache. Call before StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup runs the cleanup loop in the background until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanAll(); n > 0 {
				m.log.Debug("Removed expired cache entries", "count", n)
			}
		case <-m.stop:
			return
		}
	}
}

// CleanAll cleans every registered cache once.
func (m *Manager) CleanAll() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop started by StartCleanup and waits for it.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
}
