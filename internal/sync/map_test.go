package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapBasicOps(t *testing.T) {
	m := NewMap[string, int]()

	_, ok := m.Load("a")
	assert.False(t, ok)

	m.Store("a", 1)
	v, ok := m.Load("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())

	m.Delete("a")
	_, ok = m.Load("a")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMapLoadAndDelete(t *testing.T) {
	m := NewMap[string, string]()
	m.Store("k", "v")

	v, loaded := m.LoadAndDelete("k")
	assert.True(t, loaded)
	assert.Equal(t, "v", v)

	_, loaded = m.LoadAndDelete("k")
	assert.False(t, loaded)
}

func TestMapRange(t *testing.T) {
	m := NewMap[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)

	seen := map[string]int{}
	m.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}

func TestMapConcurrentAccess(t *testing.T) {
	m := NewMap[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Store(n, n)
			m.Load(n)
			m.Delete(n)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, m.Len())
}
