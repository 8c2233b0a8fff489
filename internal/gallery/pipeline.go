package gallery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pders01/fotag/internal/debuglog"
)

// DefaultDebounce is how long a query has to stay unchanged before it is
// fetched.
const DefaultDebounce = 1000 * time.Millisecond

type Option func(*Pipeline)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.debounce = d
		}
	}
}

// WithLocation sets the time zone published dates are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(p *Pipeline) {
		p.mapper = NewMapper(loc)
	}
}

// Pipeline turns query text into debounced feed fetches and writes the
// outcome to a StateStore. Only the most recently started fetch may commit
// its result; every other one is discarded by generation.
type Pipeline struct {
	client   SearchClient
	store    *StateStore
	mapper   *Mapper
	debounce time.Duration
	query    *Value[string]

	generation atomic.Uint64

	mu          sync.Mutex
	initialized bool
	ctx         context.Context
	timer       *time.Timer
	cancelFetch context.CancelFunc
}

func NewPipeline(client SearchClient, store *StateStore, opts ...Option) *Pipeline {
	if store == nil {
		store = NewStateStore()
	}
	p := &Pipeline{
		client:   client,
		store:    store,
		mapper:   NewMapper(nil),
		debounce: DefaultDebounce,
		query:    NewValue(""),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Initialize activates the pipeline. Only the first call has an effect.
// When ctx ends, pending and in-flight searches are abandoned; a nil ctx
// never ends.
func (p *Pipeline) Initialize(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p.initialized = true
	p.ctx = ctx
	context.AfterFunc(ctx, p.stop)
}

// State returns the store the pipeline writes to.
func (p *Pipeline) State() *StateStore {
	return p.store
}

// Query returns the latest submitted text.
func (p *Pipeline) Query() string {
	return p.query.Get()
}

// SubscribeQuery observes the query text. The observer must not call back
// into the pipeline synchronously.
func (p *Pipeline) SubscribeQuery(fn func(string)) func() {
	return p.query.Subscribe(fn)
}

// SubmitQuery records text as the current query and schedules a fetch once
// the debounce window passes without further input. Empty text and a repeat
// of the current query leave pending and in-flight searches alone.
func (p *Pipeline) SubmitQuery(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return ErrNotInitialized
	}

	if text == "" || text == p.query.Get() {
		p.query.Set(text)
		return nil
	}
	gen := p.supersede()
	p.query.Set(text)
	if p.ctx.Err() != nil {
		return nil
	}
	p.timer = time.AfterFunc(p.debounce, func() { p.search(gen, text) })
	return nil
}

// ClearQuery empties the query and the photo list without fetching.
func (p *Pipeline) ClearQuery() error {
	p.mu.Lock()
	if !p.initialized {
		p.mu.Unlock()
		return ErrNotInitialized
	}
	p.supersede()
	p.query.Set("")
	p.mu.Unlock()

	p.store.Update(clearPhotos)
	return nil
}

// SelectItem selects the photo at index. Without results, or with an index
// outside the list, the state is left unchanged.
func (p *Pipeline) SelectItem(index int) error {
	if err := p.checkInitialized(); err != nil {
		return err
	}
	p.store.Update(setSelected(index))
	return nil
}

// ClearSelection resets the selection to -1.
func (p *Pipeline) ClearSelection() error {
	if err := p.checkInitialized(); err != nil {
		return err
	}
	p.store.Update(setSelected(-1))
	return nil
}

func (p *Pipeline) checkInitialized() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return ErrNotInitialized
	}
	return nil
}

// supersede invalidates the pending timer and any in-flight fetch and
// returns the new generation. mu must be held.
func (p *Pipeline) supersede() uint64 {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancelFetch != nil {
		p.cancelFetch()
		p.cancelFetch = nil
	}
	return p.generation.Add(1)
}

func (p *Pipeline) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supersede()
}

func (p *Pipeline) search(gen uint64, tag string) {
	p.mu.Lock()
	if p.generation.Load() != gen || p.ctx.Err() != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancelFetch = cancel
	p.timer = nil
	p.mu.Unlock()
	defer cancel()

	log := debuglog.WithFields(map[string]any{"tag": tag, "generation": gen})
	if !p.commit(gen, setLoading) {
		return
	}
	log.Debugf("fetch started")

	photos, err := p.fetch(ctx, tag)
	if err != nil {
		if p.commit(gen, setFailed) {
			log.Errorf("%v", err)
		} else {
			log.Debugf("discarding superseded failure: %v", err)
		}
		return
	}

	if p.commit(gen, setPhotos(photos)) {
		log.Infof("fetched %d photos", len(photos))
	} else {
		log.Debugf("discarding superseded result")
	}
}

func (p *Pipeline) fetch(ctx context.Context, tag string) ([]DisplayPhoto, error) {
	result, err := p.client.Fetch(ctx, tag)
	if err != nil {
		return nil, &FetchError{Tag: tag, Err: err}
	}
	if result == nil {
		return nil, &FetchError{Tag: tag, Err: errors.New("empty response")}
	}
	photos, err := p.mapper.ToDisplayPhotos(result.Items)
	if err != nil {
		return nil, &FetchError{Tag: tag, Err: err}
	}
	return photos, nil
}

// commit applies fn only while gen is still the current generation. The
// check runs under the store's writer lock.
func (p *Pipeline) commit(gen uint64, fn func(UiState) UiState) bool {
	applied := false
	p.store.Update(func(s UiState) UiState {
		if p.generation.Load() != gen {
			return s
		}
		applied = true
		return fn(s)
	})
	return applied
}
