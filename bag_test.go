package mediasoup

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBag(t *testing.T) {
	var (
		bag   Bag[func(int)]
		calls []int
	)

	sub1 := bag.Add(func(v int) { calls = append(calls, v) })
	bag.Add(func(v int) { calls = append(calls, v*10) })
	assert.Equal(t, 2, bag.Len())

	emit(&bag, 1)
	assert.Equal(t, []int{1, 10}, calls)

	sub1.Unsubscribe()
	sub1.Unsubscribe()
	emit(&bag, 2)
	assert.Equal(t, []int{1, 10, 20}, calls)
	assert.Equal(t, 1, bag.Len())
}

func TestBagDetach(t *testing.T) {
	var (
		bag    Bag[func()]
		called int
	)
	sub := bag.Add(func() { called++ })
	sub.Detach()
	sub.Unsubscribe()

	fire(&bag)
	assert.Equal(t, 1, called)

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestBagHandlerMayUnsubscribeItself(t *testing.T) {
	var (
		bag    Bag[func()]
		sub    *Subscription
		called int
	)
	sub = bag.Add(func() {
		called++
		sub.Unsubscribe()
	})

	fire(&bag)
	fire(&bag)
	assert.Equal(t, 1, called)
}

func TestBagCallOnceAndClear(t *testing.T) {
	var (
		bag    Bag[func()]
		called int
	)
	bag.Add(func() { called++ })
	bag.Add(func() { called++ })

	fireOnce(&bag)
	fireOnce(&bag)
	assert.Equal(t, 2, called)
	assert.Zero(t, bag.Len())

	_, ok := bag.TryAdd(func() { called++ })
	assert.False(t, ok)

	// Late subscribers to a terminal event run right away.
	sub := addOrCall(&bag, func() { called++ })
	assert.Equal(t, 3, called)
	sub.Unsubscribe()
}

func TestBagConcurrentFireOnce(t *testing.T) {
	var (
		bag    Bag[func()]
		mu     sync.Mutex
		called int
	)
	for range 100 {
		bag.Add(func() {
			mu.Lock()
			called++
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fireOnce(&bag)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, called)
}
