package locking

import (
	"context"
	"sync"
)

// Manager serializes arena-mutating operations per project. The contract is
// mutual exclusion keyed by project id, held across the full
// read-validate-write sequence; this implementation is in-process, matching a
// single-coordinator deployment.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager() *Manager {
	return &Manager{locks: make(map[string]*projectLock)}
}

// AcquireProject blocks until the project's lock is held or ctx is done.
// The returned release function must be called exactly once.
func (m *Manager) AcquireProject(ctx context.Context, projectID string) (func(), error) {
	m.mu.Lock()
	lock, ok := m.locks[projectID]
	if !ok {
		lock = &projectLock{}
		m.locks[projectID] = lock
	}
	lock.refs++
	m.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return func() {
			lock.mu.Unlock()
			m.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(m.locks, projectID)
			}
			m.mu.Unlock()
		}, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			lock.mu.Unlock()
			m.mu.Lock()
			lock.refs--
			if lock.refs == 0 {
				delete(m.locks, projectID)
			}
			m.mu.Unlock()
		}()
		return nil, ctx.Err()
	}
}
