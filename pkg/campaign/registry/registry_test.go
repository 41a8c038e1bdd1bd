package registry_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/campaignkit/pkg/campaign/registry"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("send_email", 1)
	r.Register("add_score", 2)

	v, ok := r.Lookup("send_email")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = r.Lookup("unknown")
	assert.False(t, ok)

	assert.True(t, r.Has("add_score"))
	assert.False(t, r.Has("unknown"))
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := registry.New[string, string]()
	r.Register("send_email", "v1")
	r.Register("send_email", "v2")

	v, ok := r.Lookup("send_email")
	require.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Keys(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("a", 1)
	r.Register("b", 2)

	assert.ElementsMatch(t, []string{"a", "b"}, r.Keys())
}

func TestRegistry_RangeSortedAndStoppable(t *testing.T) {
	r := registry.New[string, int]()
	r.Register("c", 3)
	r.Register("a", 1)
	r.Register("b", 2)

	var visited []string
	r.Range(func(k string, v int) bool {
		visited = append(visited, k)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, visited)

	visited = nil
	r.Range(func(k string, v int) bool {
		visited = append(visited, k)
		return len(visited) < 2
	})
	assert.Len(t, visited, 2)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := registry.New[string, int]()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Register("key", n)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = r.Lookup("key")
		}()
	}
	wg.Wait()

	assert.True(t, r.Has("key"))
}
