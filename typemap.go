package pgbind

import (
	"sync"
)

// TypeMap maps oids to host types. Keys may be given as oids or canonical type names. A TypeMap is safe for
// concurrent use.
type TypeMap struct {
	mu    sync.RWMutex
	types map[Oid]HostType
}

func NewTypeMap() *TypeMap {
	return &TypeMap{types: make(map[Oid]HostType)}
}

// Set maps key to t. key is resolved with ResolveOid.
func (m *TypeMap) Set(key any, t HostType) error {
	oid, err := ResolveOid(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.types[oid] = t
	m.mu.Unlock()
	return nil
}

// MustSet is like Set but panics on an unknown key.
func (m *TypeMap) MustSet(key any, t HostType) *TypeMap {
	if err := m.Set(key, t); err != nil {
		panic(err)
	}
	return m
}

// Delete removes the mapping for key, if any.
func (m *TypeMap) Delete(key any) error {
	oid, err := ResolveOid(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.types, oid)
	m.mu.Unlock()
	return nil
}

// Lookup returns the host type mapped to oid. A nil TypeMap is empty.
func (m *TypeMap) Lookup(oid Oid) (HostType, bool) {
	if m == nil {
		return HostType{}, false
	}

	m.mu.RLock()
	t, ok := m.types[oid]
	m.mu.RUnlock()
	return t, ok
}

func (m *TypeMap) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.types)
}

// Clone returns an independent copy of m.
func (m *TypeMap) Clone() *TypeMap {
	c := NewTypeMap()
	if m == nil {
		return c
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.types {
		c.types[k] = v
	}
	return c
}

// ColumnTypes overrides the host type of individual result columns. Positions are 1-based. When a position and a
// name both address the same column the position wins.
type ColumnTypes struct {
	ByName     map[string]HostType
	ByPosition map[int]HostType
}

func (ct ColumnTypes) lookup(col int, name string) (HostType, bool) {
	if t, ok := ct.ByPosition[col+1]; ok {
		return t, true
	}
	if t, ok := ct.ByName[name]; ok {
		return t, true
	}
	return HostType{}, false
}

// NotNull asserts that columns never contain NULL. Positions are 1-based.
type NotNull struct {
	All       bool
	Names     []string
	Positions []int
}

func (nn NotNull) has(col int, name string) bool {
	if nn.All {
		return true
	}
	for _, p := range nn.Positions {
		if p == col+1 {
			return true
		}
	}
	for _, n := range nn.Names {
		if n == name {
			return true
		}
	}
	return false
}
