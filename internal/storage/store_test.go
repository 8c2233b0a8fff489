package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pders01/fotag/internal/gallery"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "test.db"), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func item(title, published string) gallery.FeedItem {
	return gallery.FeedItem{
		Title:       title,
		Link:        "https://www.flickr.com/photos/someone/" + title + "/",
		Media:       gallery.FeedMedia{M: "https://live.staticflickr.com/" + title + "_m.jpg"},
		Description: "<p>" + title + "</p>",
		Published:   published,
		Author:      "nobody@flickr.com (\"someone\")",
		AuthorID:    "123@N00",
		Tags:        "cats " + title,
	}
}

// clock returns a deterministic time source advancing a minute per call.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	}
}

func TestStore_RecordSearch(t *testing.T) {
	store := setupTestStore(t)
	store.now = clock(time.Date(2024, 6, 27, 10, 0, 0, 0, time.UTC))

	photos, err := store.RecordSearch(" Cats ", []gallery.FeedItem{
		item("tom", "2024-06-27T10:17:53Z"),
		item("felix", "2024-06-26T08:00:00Z"),
	})
	if err != nil {
		t.Fatalf("failed to record search: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(photos))
	}
	if photos[0].Title != "tom" || photos[0].Queries[0] != "cats" {
		t.Errorf("unexpected first photo: %+v", photos[0])
	}
	if !photos[0].Published.Equal(time.Date(2024, 6, 27, 10, 17, 53, 0, time.UTC)) {
		t.Errorf("expected parsed published time, got %v", photos[0].Published)
	}

	record, err := store.GetSearch("cats")
	if err != nil {
		t.Fatalf("failed to get search: %v", err)
	}
	if record.Runs != 1 || record.LastCount != 2 {
		t.Errorf("unexpected record: %+v", record)
	}

	if _, err := store.RecordSearch("cats", []gallery.FeedItem{item("tom", "2024-06-27T10:17:53Z")}); err != nil {
		t.Fatalf("failed to record second run: %v", err)
	}
	record, err = store.GetSearch("CATS")
	if err != nil {
		t.Fatalf("failed to get search: %v", err)
	}
	if record.Runs != 2 || record.LastCount != 1 {
		t.Errorf("expected 2 runs with last count 1, got %+v", record)
	}
}

func TestStore_RecordSearchEmptyTag(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.RecordSearch("   ", nil); err == nil {
		t.Error("expected error for empty tag, got nil")
	}
}

func TestStore_RecordSearchRejectsMalformedTimestamp(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.RecordSearch("cats", []gallery.FeedItem{
		item("tom", "2024-06-27T10:17:53Z"),
		item("felix", "yesterday"),
	})
	var tsErr *gallery.MalformedTimestampError
	if !errors.As(err, &tsErr) {
		t.Fatalf("expected a malformed timestamp error, got %v", err)
	}
	if _, err := store.GetSearch("cats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected no search record, got %v", err)
	}
	photos, err := store.AllPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 0 {
		t.Errorf("expected nothing archived, got %d photos", len(photos))
	}
}

func TestStore_GetSearch_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetSearch("non-existent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	_, err = store.GetPhoto("non-existent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SharedPhotosKeepFirstArchiveTime(t *testing.T) {
	store := setupTestStore(t)
	store.now = clock(time.Date(2024, 6, 27, 10, 0, 0, 0, time.UTC))

	shared := item("tom", "2024-06-27T10:17:53Z")
	first, err := store.RecordSearch("cats", []gallery.FeedItem{shared})
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.RecordSearch("kitten", []gallery.FeedItem{shared})
	if err != nil {
		t.Fatal(err)
	}

	if first[0].ID != second[0].ID {
		t.Fatalf("expected the same id for the same link")
	}
	if !second[0].ArchivedAt.Equal(first[0].ArchivedAt) {
		t.Errorf("ArchivedAt changed from %v to %v", first[0].ArchivedAt, second[0].ArchivedAt)
	}

	stored, err := store.GetPhoto(first[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Queries) != 2 || !stored.HasQuery("cats") || !stored.HasQuery("kitten") {
		t.Errorf("expected queries [cats kitten], got %v", stored.Queries)
	}

	// Recording the same tag again does not duplicate it.
	if _, err := store.RecordSearch("cats", []gallery.FeedItem{shared}); err != nil {
		t.Fatal(err)
	}
	stored, _ = store.GetPhoto(first[0].ID)
	if len(stored.Queries) != 2 {
		t.Errorf("expected 2 queries, got %v", stored.Queries)
	}
}

func TestStore_GetPhotos(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.RecordSearch("cats", []gallery.FeedItem{
		item("old", "2024-06-01T00:00:00Z"),
		item("new", "2024-06-27T00:00:00Z"),
		item("mid", "2024-06-15T00:00:00Z"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordSearch("dogs", []gallery.FeedItem{item("rex", "2024-06-20T00:00:00Z")}); err != nil {
		t.Fatal(err)
	}

	cats, err := store.GetPhotos("cats", 0)
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, p := range cats {
		titles = append(titles, p.Title)
	}
	if len(titles) != 3 || titles[0] != "new" || titles[1] != "mid" || titles[2] != "old" {
		t.Errorf("expected [new mid old], got %v", titles)
	}

	limited, err := store.GetPhotos("cats", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 photos with limit, got %d", len(limited))
	}

	all, err := store.AllPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 photos in total, got %d", len(all))
	}
}

func TestStore_RecentSearches(t *testing.T) {
	store := setupTestStore(t)
	store.now = clock(time.Date(2024, 6, 27, 10, 0, 0, 0, time.UTC))

	for _, tag := range []string{"cats", "dogs", "birds", "cats"} {
		if _, err := store.RecordSearch(tag, nil); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.RecentSearches(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 searches, got %d", len(recent))
	}
	if recent[0].Tag != "cats" || recent[1].Tag != "birds" || recent[2].Tag != "dogs" {
		t.Errorf("expected [cats birds dogs], got [%s %s %s]", recent[0].Tag, recent[1].Tag, recent[2].Tag)
	}
	if recent[0].Runs != 2 {
		t.Errorf("expected cats to have 2 runs, got %d", recent[0].Runs)
	}

	limited, err := store.RecentSearches(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 search with limit, got %d", len(limited))
	}
}

func TestStore_DeleteSearch(t *testing.T) {
	store := setupTestStore(t)

	shared := item("tom", "2024-06-27T10:17:53Z")
	if _, err := store.RecordSearch("cats", []gallery.FeedItem{shared, item("felix", "2024-06-26T00:00:00Z")}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordSearch("kitten", []gallery.FeedItem{shared}); err != nil {
		t.Fatal(err)
	}

	removed, updated, err := store.DeleteSearch("cats")
	if err != nil {
		t.Fatalf("failed to delete search: %v", err)
	}
	if len(removed) != 1 || removed[0] != PhotoID(item("felix", "2024-06-26T00:00:00Z")) {
		t.Errorf("expected felix to be removed, got %v", removed)
	}
	if len(updated) != 1 || updated[0].Title != "tom" {
		t.Errorf("expected tom to be updated, got %v", updated)
	}
	if _, err := store.GetSearch("cats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected cats to be gone, got %v", err)
	}

	all, err := store.AllPhotos()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Title != "tom" {
		t.Fatalf("expected only the shared photo to remain, got %d photos", len(all))
	}
	if all[0].HasQuery("cats") || !all[0].HasQuery("kitten") {
		t.Errorf("expected queries [kitten], got %v", all[0].Queries)
	}

	if _, _, err := store.DeleteSearch("cats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.RecordSearch("cats", []gallery.FeedItem{item("tom", "2024-06-27T10:17:53Z")}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = NewStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	photos, err := store.GetPhotos("cats", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(photos) != 1 {
		t.Errorf("expected 1 photo after reopen, got %d", len(photos))
	}
}

func TestPhotoID(t *testing.T) {
	a := item("tom", "")
	b := item("tom", "2024-01-01T00:00:00Z")
	if PhotoID(a) != PhotoID(b) {
		t.Error("expected ids to depend on the link only")
	}

	noLink := a
	noLink.Link = ""
	if PhotoID(noLink) == PhotoID(a) {
		t.Error("expected media URL fallback to give a different id")
	}
	if len(PhotoID(a)) != 32 {
		t.Errorf("expected 32 hex characters, got %d", len(PhotoID(a)))
	}
}

type stubClient struct {
	result *gallery.FeedResult
	err    error
}

func (s *stubClient) Fetch(ctx context.Context, tag string) (*gallery.FeedResult, error) {
	return s.result, s.err
}

type listenerFunc func(tag string, photos []*Photo)

func (f listenerFunc) OnPhotosArchived(tag string, photos []*Photo) { f(tag, photos) }

func TestRecordingClient(t *testing.T) {
	store := setupTestStore(t)
	feed := &gallery.FeedResult{Items: []gallery.FeedItem{item("tom", "2024-06-27T10:17:53Z")}}

	var notified []string
	client := NewRecordingClient(&stubClient{result: feed}, store, listenerFunc(func(tag string, photos []*Photo) {
		notified = append(notified, tag)
		if len(photos) != 1 {
			t.Errorf("expected 1 archived photo, got %d", len(photos))
		}
	}))

	got, err := client.Fetch(context.Background(), "Cats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != feed {
		t.Error("expected the wrapped result to be returned unchanged")
	}
	if len(notified) != 1 || notified[0] != "cats" {
		t.Errorf("expected one notification for cats, got %v", notified)
	}
	if _, err := store.GetSearch("cats"); err != nil {
		t.Errorf("expected search to be archived: %v", err)
	}
}

func TestRecordingClient_PassesErrorsThrough(t *testing.T) {
	store := setupTestStore(t)
	boom := errors.New("boom")

	client := NewRecordingClient(&stubClient{err: boom}, store)
	if _, err := client.Fetch(context.Background(), "cats"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
	if _, err := store.GetSearch("cats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed fetches must not be archived, got %v", err)
	}
}

func TestRecordingClient_ArchiveFailureKeepsResult(t *testing.T) {
	store := setupTestStore(t)
	feed := &gallery.FeedResult{}

	// An empty tag cannot be recorded.
	client := NewRecordingClient(&stubClient{result: feed}, store)
	got, err := client.Fetch(context.Background(), "  ")
	if err != nil {
		t.Fatalf("archive failure must not fail the fetch: %v", err)
	}
	if got != feed {
		t.Error("expected the wrapped result to be returned")
	}
}

func TestRecordingClient_SkipsMalformedFeed(t *testing.T) {
	store := setupTestStore(t)
	feed := &gallery.FeedResult{Items: []gallery.FeedItem{item("tom", "yesterday")}}

	notified := 0
	client := NewRecordingClient(&stubClient{result: feed}, store, listenerFunc(func(string, []*Photo) {
		notified++
	}))
	got, err := client.Fetch(context.Background(), "malformed")
	if err != nil {
		t.Fatalf("archive failure must not fail the fetch: %v", err)
	}
	if got != feed {
		t.Error("expected the wrapped result to be returned")
	}
	if _, err := store.GetSearch("malformed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("malformed feeds must not be archived, got %v", err)
	}
	if notified != 0 {
		t.Errorf("expected no listener calls, got %d", notified)
	}
}

func TestRecordingClient_SkipsCancelled(t *testing.T) {
	store := setupTestStore(t)
	feed := &gallery.FeedResult{Items: []gallery.FeedItem{item("tom", "2024-06-27T10:17:53Z")}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewRecordingClient(&stubClient{result: feed}, store)
	if _, err := client.Fetch(ctx, "cats"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSearch("cats"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancelled fetches must not be archived, got %v", err)
	}
}
