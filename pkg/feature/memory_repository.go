package feature

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryRepository keeps flags in process memory. It is meant for
// single-instance deployments and tests: nothing is shared across processes
// and nothing survives a restart.
type MemoryRepository struct {
	mu      sync.RWMutex
	tenants map[string]map[string]*Flag
}

// NewMemoryRepository creates an in-memory repository populated with the given flags.
func NewMemoryRepository(initialFlags ...*Flag) (*MemoryRepository, error) {
	repo := &MemoryRepository{
		tenants: make(map[string]map[string]*Flag),
	}
	for _, flag := range initialFlags {
		if flag == nil {
			continue
		}
		if err := repo.Set(context.Background(), flag.TenantID, flag.Key, flag); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Get retrieves a copy of the flag.
func (m *MemoryRepository) Get(_ context.Context, tenantID, flagKey string) (*Flag, error) {
	m.mu.RLock()
	flag, ok := m.tenants[tenantID][flagKey]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrFlagNotFound
	}
	return flag.Clone(), nil
}

// List returns copies of the tenant's flags ordered by key.
func (m *MemoryRepository) List(_ context.Context, tenantID string) ([]*Flag, error) {
	m.mu.RLock()
	flags := make([]*Flag, 0, len(m.tenants[tenantID]))
	for _, flag := range m.tenants[tenantID] {
		flags = append(flags, flag.Clone())
	}
	m.mu.RUnlock()

	slices.SortFunc(flags, func(a, b *Flag) int {
		return strings.Compare(a.Key, b.Key)
	})
	return flags, nil
}

// Set upserts a copy of the flag.
func (m *MemoryRepository) Set(_ context.Context, tenantID, flagKey string, flag *Flag) error {
	if err := validateKey(tenantID, flagKey); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var createdAt time.Time
	if existing, ok := m.tenants[tenantID][flagKey]; ok {
		createdAt = existing.CreatedAt
	}
	stored, err := prepareWrite(tenantID, flagKey, flag, createdAt, time.Now().UTC())
	if err != nil {
		return err
	}

	bucket, ok := m.tenants[tenantID]
	if !ok {
		bucket = make(map[string]*Flag)
		m.tenants[tenantID] = bucket
	}
	bucket[flagKey] = stored
	return nil
}

// Delete removes the flag if present.
func (m *MemoryRepository) Delete(_ context.Context, tenantID, flagKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.tenants[tenantID]
	if !ok {
		return nil
	}
	delete(bucket, flagKey)
	if len(bucket) == 0 {
		delete(m.tenants, tenantID)
	}
	return nil
}
