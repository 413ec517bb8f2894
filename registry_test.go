package mediasoup

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type registryItem struct {
	name string
	_    [64]byte
}

func TestRegistry(t *testing.T) {
	var r registry[registryItem]

	a := &registryItem{name: "a"}
	b := &registryItem{name: "b"}

	assert.True(t, r.Insert("a", a))
	assert.False(t, r.Insert("a", b))
	assert.True(t, r.Insert("b", b))

	assert.Same(t, a, r.Get("a"))
	assert.Nil(t, r.Get("c"))
	assert.ElementsMatch(t, []*registryItem{a, b}, r.Values())

	// Only the current holder can remove an id.
	r.Remove("a", b)
	assert.Same(t, a, r.Get("a"))
	r.Remove("a", a)
	assert.Nil(t, r.Get("a"))
	assert.Equal(t, 1, r.Len())

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestRegistryDoesNotRetain(t *testing.T) {
	var r registry[registryItem]

	func() {
		r.Insert("gone", &registryItem{name: "gone"})
	}()

	assert.Eventually(t, func() bool {
		runtime.GC()
		return r.Get("gone") == nil
	}, time.Second, 10*time.Millisecond)

	assert.True(t, r.Insert("gone", &registryItem{name: "again"}))
}
