package types

import (
	"maps"
	"strings"
	"sync"
)

// Mapping translates native type names to logical types. Reads may run
// concurrently with each other and with Register.
type Mapping struct {
	mu      sync.RWMutex
	natives map[string]Type
}

func NewMapping(initial map[string]Type) *Mapping {
	natives := make(map[string]Type, len(initial))
	for dbType, t := range initial {
		natives[strings.ToLower(dbType)] = t
	}
	return &Mapping{natives: natives}
}

// Lookup returns the logical type of dbType.
func (m *Mapping) Lookup(dbType string) (Type, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.natives[strings.ToLower(dbType)]
	if !ok {
		return "", &MappingError{Name: dbType, Native: true}
	}
	return t, nil
}

func (m *Mapping) Has(dbType string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.natives[strings.ToLower(dbType)]
	return ok
}

// Register maps dbType onto the logical type named logicalType, replacing any
// previous mapping. It fails when logicalType is unknown.
func (m *Mapping) Register(dbType string, logicalType string) error {
	t, err := Lookup(logicalType)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.natives[strings.ToLower(dbType)] = t
	return nil
}

// Snapshot returns a copy of the current mappings.
func (m *Mapping) Snapshot() map[string]Type {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.natives)
}
