package types

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	typ, err := Lookup("DateTimeTz")
	require.NoError(t, err)
	assert.Equal(t, DateTimeTz, typ)

	_, err = Lookup("money")
	var mappingErr *MappingError
	require.True(t, errors.As(err, &mappingErr))
	assert.False(t, mappingErr.Native)
	assert.Equal(t, `unknown column type "money" requested`, err.Error())
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, BigInt.IsInteger())
	assert.False(t, Decimal.IsInteger())
	assert.True(t, Time.IsTemporal())
	assert.False(t, String.IsTemporal())
	assert.True(t, Blob.HasLength())
	assert.True(t, JSON.IsClob())
}

func TestMapping(t *testing.T) {
	m := NewMapping(map[string]Type{"VARCHAR": String, "int": Integer})

	typ, err := m.Lookup("varchar")
	require.NoError(t, err)
	assert.Equal(t, String, typ)

	_, err = m.Lookup("geometry")
	var mappingErr *MappingError
	require.True(t, errors.As(err, &mappingErr))
	assert.True(t, mappingErr.Native)

	require.NoError(t, m.Register("GEOMETRY", "blob"))
	typ, err = m.Lookup("geometry")
	require.NoError(t, err)
	assert.Equal(t, Blob, typ)

	err = m.Register("point", "shape")
	require.Error(t, err)
	assert.False(t, m.Has("point"))

	snapshot := m.Snapshot()
	snapshot["int"] = BigInt
	typ, _ = m.Lookup("int")
	assert.Equal(t, Integer, typ)
}

func TestMappingConcurrentAccess(t *testing.T) {
	m := NewMapping(map[string]Type{"int": Integer})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, m.Register(fmt.Sprintf("custom%d", i), "string"))
		}(i)
		go func() {
			defer wg.Done()
			_, err := m.Lookup("int")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		assert.True(t, m.Has(fmt.Sprintf("custom%d", i)))
	}
}
