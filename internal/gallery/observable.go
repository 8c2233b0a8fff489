package gallery

import "sync"

// observerList keeps subscription order stable across unsubscribes.
type observerList[T any] struct {
	mu     sync.Mutex
	fns    map[int]func(T)
	order  []int
	nextID int
}

func (l *observerList[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	l.order = append(l.order, id)

	var once sync.Once
	return func() { once.Do(func() { l.remove(id) }) }
}

func (l *observerList[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.fns, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i:i], l.order[i+1:]...)
			return
		}
	}
}

func (l *observerList[T]) snapshot() []func(T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]func(T), 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.fns[id])
	}
	return out
}

// Value is a synchronously observed value. Observers run on the goroutine
// that calls Set, in the order the changes happen, and must not call Set.
type Value[T comparable] struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	value     T
	observers observerList[T]
}

// NewValue returns a Value holding initial.
func NewValue[T comparable](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores next and notifies observers if it differs from the current value.
func (v *Value[T]) Set(next T) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	v.mu.Lock()
	if v.value == next {
		v.mu.Unlock()
		return
	}
	v.value = next
	v.mu.Unlock()

	for _, fn := range v.observers.snapshot() {
		fn(next)
	}
}

// Subscribe registers fn and returns a function removing it again.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	return v.observers.add(fn)
}
