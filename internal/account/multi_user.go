package account

import (
	"sync"
	"time"

	"risk-core/internal/risk"
)

// Factory builds a Manager for a user on first access.
type Factory func(userID string) (*Manager, error)

// MultiUserManager hands out per-user account managers, creating them lazily
// and evicting idle ones.
type MultiUserManager struct {
	mu       sync.RWMutex
	managers map[string]*Manager
	lastSeen map[string]time.Time
	factory  Factory
}

// NewMultiUserManager creates a multi-user account manager.
func NewMultiUserManager(factory Factory) *MultiUserManager {
	return &MultiUserManager{
		managers: make(map[string]*Manager),
		lastSeen: make(map[string]time.Time),
		factory:  factory,
	}
}

// GetOrCreate returns the manager for a user, creating it if needed.
func (m *MultiUserManager) GetOrCreate(userID string) (*Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mgr, ok := m.managers[userID]; ok {
		m.lastSeen[userID] = time.Now()
		return mgr, nil
	}

	mgr, err := m.factory(userID)
	if err != nil {
		return nil, err
	}
	m.managers[userID] = mgr
	m.lastSeen[userID] = time.Now()
	return mgr, nil
}

// Get returns the manager for a user, or nil if not loaded. It refreshes
// activity for existing managers and never creates a new one.
func (m *MultiUserManager) Get(userID string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mgr, ok := m.managers[userID]; ok {
		m.lastSeen[userID] = time.Now()
		return mgr
	}
	return nil
}

// Remove drops the manager for a user.
func (m *MultiUserManager) Remove(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.managers, userID)
	delete(m.lastSeen, userID)
}

// Count returns the number of loaded user managers.
func (m *MultiUserManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.managers)
}

// Snapshots returns the current risk snapshot for every loaded user.
func (m *MultiUserManager) Snapshots() map[string]risk.Snapshot {
	m.mu.RLock()
	managers := make(map[string]*Manager, len(m.managers))
	for id, mgr := range m.managers {
		managers[id] = mgr
	}
	m.mu.RUnlock()

	// Snapshot outside the registry lock; each manager has its own.
	result := make(map[string]risk.Snapshot, len(managers))
	for id, mgr := range managers {
		result[id] = mgr.Snapshot()
	}
	return result
}

// CleanupIdle evicts managers idle longer than ttl. State is already durable,
// so eviction only costs a reload on next access.
func (m *MultiUserManager) CleanupIdle(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, t := range m.lastSeen {
		if t.Before(cutoff) {
			delete(m.managers, userID)
			delete(m.lastSeen, userID)
		}
	}
}
