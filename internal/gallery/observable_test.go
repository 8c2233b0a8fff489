package gallery

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	v := NewValue("")
	assert.Equal(t, "", v.Get())

	var seen []string
	unsubscribe := v.Subscribe(func(s string) { seen = append(seen, s) })

	v.Set("a")
	v.Set("a")
	v.Set("b")
	unsubscribe()
	v.Set("c")

	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, "c", v.Get())
}

func TestValueObserverSeesNewValue(t *testing.T) {
	v := NewValue(0)
	var got int
	v.Subscribe(func(int) { got = v.Get() })

	v.Set(7)
	assert.Equal(t, 7, got)
}

func TestObserverListKeepsOrder(t *testing.T) {
	var l observerList[int]
	var order []string

	removeA := l.add(func(int) { order = append(order, "a") })
	l.add(func(int) { order = append(order, "b") })
	l.add(func(int) { order = append(order, "c") })
	removeA()
	l.add(func(int) { order = append(order, "d") })

	for _, fn := range l.snapshot() {
		fn(0)
	}
	assert.Equal(t, []string{"b", "c", "d"}, order)
}

func TestValueConcurrentSet(t *testing.T) {
	v := NewValue(0)
	var mu sync.Mutex
	count := 0
	v.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
			_ = v.Get()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count, "every distinct value is published once")
}
