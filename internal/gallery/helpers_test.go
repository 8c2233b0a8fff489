package gallery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testDebounce = 20 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

// MockSearchClient is a testify mock of SearchClient.
type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) Fetch(ctx context.Context, tag string) (*FeedResult, error) {
	args := m.Called(ctx, tag)
	result, _ := args.Get(0).(*FeedResult)
	return result, args.Error(1)
}

// fakeClient records every tag it is asked for and answers through respond.
type fakeClient struct {
	mu      sync.Mutex
	tags    []string
	respond func(ctx context.Context, tag string) (*FeedResult, error)
}

func (f *fakeClient) Fetch(ctx context.Context, tag string) (*FeedResult, error) {
	f.mu.Lock()
	f.tags = append(f.tags, tag)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return feedOf(tag), nil
	}
	return respond(ctx, tag)
}

func (f *fakeClient) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tags...)
}

func feedItem(title string) FeedItem {
	return FeedItem{
		Title:       title,
		Link:        "https://www.flickr.com/photos/someone/" + title + "/",
		Media:       FeedMedia{M: "https://live.staticflickr.com/" + title + "_m.jpg"},
		Description: "description of " + title,
		Published:   "2024-06-27T10:17:53Z",
		Author:      "author1",
		AuthorID:    "authorId1",
		Tags:        "tags1",
	}
}

// feedOf returns a one-photo feed whose photo is titled after tag.
func feedOf(tag string, more ...string) *FeedResult {
	items := []FeedItem{feedItem(tag)}
	for _, title := range more {
		items = append(items, feedItem(title))
	}
	return &FeedResult{
		Title:    "gallery " + tag,
		Link:     "link1",
		Modified: "2024-06-27T10:17:53Z",
		Items:    items,
	}
}

func newTestPipeline(t *testing.T, client SearchClient, opts ...Option) *Pipeline {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	opts = append([]Option{WithDebounce(testDebounce), WithLocation(time.UTC)}, opts...)
	p := NewPipeline(client, nil, opts...)
	p.Initialize(ctx)
	return p
}

// stateRecorder collects every state a store publishes.
type stateRecorder struct {
	mu     sync.Mutex
	states []UiState
}

func recordStates(t *testing.T, store *StateStore) *stateRecorder {
	r := &stateRecorder{}
	t.Cleanup(store.Subscribe(func(s UiState) {
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
	}))
	return r
}

func (r *stateRecorder) all() []UiState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]UiState(nil), r.states...)
}
