// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 grantgraph Contributors

// Package fixtures provides an in-memory storage.Storage reference
// implementation for tests, the CLI, and local experimentation. Rows
// are set directly through its builder methods or parsed from fixture
// text by fixtures/fixlang.
package fixtures

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/grantgraph/grantgraph/storage"
)

// MemoryStorage is a storage.Storage (and storage.CounterConsumer)
// backed entirely by in-process maps. Its "raw" row encoding is simply
// the row's own key: decoding looks the key back up in the map it came
// from. This is fine for a reference adapter whose whole purpose is
// never to touch a wire format.
type MemoryStorage struct {
	mu sync.RWMutex

	memberships        map[string][]storage.Record
	membershipTerminal map[string]bool
	permissions        map[string][]storage.Record
	permissionTerminal map[string]bool
	filters            map[string]uint16
	counters           map[string]map[string]int
}

// New returns an empty MemoryStorage.
func New() *MemoryStorage {
	return &MemoryStorage{
		memberships:        make(map[string][]storage.Record),
		membershipTerminal: make(map[string]bool),
		permissions:        make(map[string][]storage.Record),
		permissionTerminal: make(map[string]bool),
		filters:            make(map[string]uint16),
		counters:           make(map[string]map[string]int),
	}
}

// SetMembership stores the M<id> row.
func (m *MemoryStorage) SetMembership(id string, terminal bool, records ...storage.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := storage.MembershipPrefix + id
	m.memberships[key] = records
	m.membershipTerminal[key] = terminal
}

// SetPermissions stores the P<id> row.
func (m *MemoryStorage) SetPermissions(id string, terminal bool, records ...storage.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := storage.PermissionPrefix + id
	m.permissions[key] = records
	m.permissionTerminal[key] = terminal
}

// SetFilter stores the F<id> row.
func (m *MemoryStorage) SetFilter(id string, mask uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters[storage.FilterPrefix+id] = mask
}

// SetCounter seeds remaining uses for recordKey/counterName. recordKey
// matches the convention the engine uses: "P<id>:<subjectID>".
func (m *MemoryStorage) SetCounter(recordKey, counterName string, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byName, ok := m.counters[recordKey]
	if !ok {
		byName = make(map[string]int)
		m.counters[recordKey] = byName
	}
	byName[counterName] = remaining
}

// Get implements storage.Storage.
func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case strings.HasPrefix(key, storage.MembershipPrefix):
		if _, ok := m.memberships[key]; ok {
			return []byte(key), true, nil
		}
	case strings.HasPrefix(key, storage.FilterPrefix):
		if _, ok := m.filters[key]; ok {
			return []byte(key), true, nil
		}
	case strings.HasPrefix(key, storage.PermissionPrefix):
		if _, ok := m.permissions[key]; ok {
			return []byte(key), true, nil
		}
	}
	return nil, false, nil
}

// DecodeMembership implements storage.Storage.
func (m *MemoryStorage) DecodeMembership(raw []byte) ([]storage.Record, bool, error) {
	key := string(raw)
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.memberships[key]
	if !ok {
		return nil, false, fmt.Errorf("fixtures: unknown membership key %q", key)
	}
	return recs, m.membershipTerminal[key], nil
}

// DecodePermissions implements storage.Storage.
func (m *MemoryStorage) DecodePermissions(raw []byte) ([]storage.Record, bool, error) {
	key := string(raw)
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs, ok := m.permissions[key]
	if !ok {
		return nil, false, fmt.Errorf("fixtures: unknown permission key %q", key)
	}
	return recs, m.permissionTerminal[key], nil
}

// DecodeFilter implements storage.Storage.
func (m *MemoryStorage) DecodeFilter(raw []byte) (uint16, error) {
	key := string(raw)
	m.mu.RLock()
	defer m.mu.RUnlock()
	mask, ok := m.filters[key]
	if !ok {
		return 0, fmt.Errorf("fixtures: unknown filter key %q", key)
	}
	return mask, nil
}

// ConsumeCounter implements storage.CounterConsumer.
func (m *MemoryStorage) ConsumeCounter(_ context.Context, recordKey, counterName string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byName, ok := m.counters[recordKey]
	if !ok {
		return 0, false, nil
	}
	remaining, ok := byName[counterName]
	if !ok || remaining <= 0 {
		return 0, false, nil
	}
	remaining--
	byName[counterName] = remaining
	return remaining, true, nil
}

var _ storage.Storage = (*MemoryStorage)(nil)
var _ storage.CounterConsumer = (*MemoryStorage)(nil)
