package storage

import (
	"context"

	"github.com/pders01/fotag/internal/debuglog"
	"github.com/pders01/fotag/internal/gallery"
)

// ArchiveListener is notified after photos of a search were archived.
type ArchiveListener interface {
	OnPhotosArchived(tag string, photos []*Photo)
}

// RecordingClient archives every successful fetch of the client it wraps.
// Archive failures are logged and never fail the fetch.
type RecordingClient struct {
	next      gallery.SearchClient
	store     *Store
	listeners []ArchiveListener
}

var _ gallery.SearchClient = (*RecordingClient)(nil)

func NewRecordingClient(next gallery.SearchClient, store *Store, listeners ...ArchiveListener) *RecordingClient {
	return &RecordingClient{next: next, store: store, listeners: listeners}
}

func (c *RecordingClient) Fetch(ctx context.Context, tag string) (*gallery.FeedResult, error) {
	result, err := c.next.Fetch(ctx, tag)
	if err != nil || result == nil {
		return result, err
	}
	// Cancelled fetches are not archived.
	if ctx.Err() != nil {
		return result, nil
	}

	photos, err := c.store.RecordSearch(tag, result.Items)
	if err != nil {
		debuglog.Warnf("archiving search %q: %v", tag, err)
		return result, nil
	}
	debuglog.Debugf("archived %d photos for %q", len(photos), tag)

	for _, l := range c.listeners {
		l.OnPhotosArchived(NormalizeTag(tag), photos)
	}
	return result, nil
}
