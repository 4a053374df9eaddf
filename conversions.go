package pgbind

import (
	"sync"
)

// ConversionFunc converts a value to a host value. It must not retain v or any slice or string obtained from its
// views after returning.
type ConversionFunc func(v Value) (any, error)

type conversionKey struct {
	oid Oid
	t   HostType
}

// ConversionMap maps (oid, host type) pairs to conversion functions. A ConversionMap is safe for concurrent use.
type ConversionMap struct {
	mu    sync.RWMutex
	funcs map[conversionKey]ConversionFunc
}

func NewConversionMap() *ConversionMap {
	return &ConversionMap{funcs: make(map[conversionKey]ConversionFunc)}
}

// Set registers fn for values of type key converted into t. key is resolved with ResolveOid.
func (m *ConversionMap) Set(key any, t HostType, fn ConversionFunc) error {
	oid, err := ResolveOid(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.funcs[conversionKey{oid: oid, t: t}] = fn
	m.mu.Unlock()
	return nil
}

// Delete removes the conversion for key and t, if any.
func (m *ConversionMap) Delete(key any, t HostType) error {
	oid, err := ResolveOid(key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.funcs, conversionKey{oid: oid, t: t})
	m.mu.Unlock()
	return nil
}

// Lookup returns the conversion registered for oid and t. A nil ConversionMap is empty.
func (m *ConversionMap) Lookup(oid Oid, t HostType) (ConversionFunc, bool) {
	if m == nil {
		return nil, false
	}

	m.mu.RLock()
	fn, ok := m.funcs[conversionKey{oid: oid, t: t}]
	m.mu.RUnlock()
	return fn, ok
}

func (m *ConversionMap) Len() int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.funcs)
}

// Clone returns an independent copy of m.
func (m *ConversionMap) Clone() *ConversionMap {
	c := NewConversionMap()
	if m == nil {
		return c
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.funcs {
		c.funcs[k] = v
	}
	return c
}

// RegisterConversion registers fn as the conversion of values of type key into T.
func RegisterConversion[T any](m *ConversionMap, key any, fn func(v Value) (T, error)) error {
	return m.Set(key, TypeFor[T](), func(v Value) (any, error) {
		return fn(v)
	})
}

// RegisterType maps key to T in types and registers fn as the conversion of key into T in conversions.
func RegisterType[T any](types *TypeMap, conversions *ConversionMap, key any, fn func(v Value) (T, error)) error {
	if err := types.Set(key, TypeFor[T]()); err != nil {
		return err
	}
	return RegisterConversion(conversions, key, fn)
}
