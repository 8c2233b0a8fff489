package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pders01/fotag/internal/gallery"
)

// SearchRecord tracks how often a tag was searched and what the last run
// returned.
type SearchRecord struct {
	Tag       string    `json:"tag"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run"`
	LastCount int       `json:"last_count"`
}

// Photo is an archived feed item.
type Photo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	MediaURL    string    `json:"media_url"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	AuthorID    string    `json:"author_id"`
	Tags        string    `json:"tags"`
	DateTaken   string    `json:"date_taken"`
	Published   time.Time `json:"published"`
	// Queries lists every search tag that returned this photo.
	Queries    []string  `json:"queries"`
	ArchivedAt time.Time `json:"archived_at"`
}

// HasQuery reports whether tag returned this photo.
func (p *Photo) HasQuery(tag string) bool {
	for _, q := range p.Queries {
		if q == tag {
			return true
		}
	}
	return false
}

// PhotoID derives a stable id from the photo page link, falling back to the
// image URL.
func PhotoID(item gallery.FeedItem) string {
	key := item.Link
	if key == "" {
		key = item.MediaURL()
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// NewPhoto converts a feed item found by tag into an archive entry. Items
// the gallery could not display, those with a malformed published instant,
// are rejected.
func NewPhoto(tag string, item gallery.FeedItem, now time.Time) (*Photo, error) {
	published, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(item.Published))
	if err != nil {
		return nil, &gallery.MalformedTimestampError{Value: item.Published, Err: err}
	}
	return &Photo{
		ID:          PhotoID(item),
		Title:       item.Title,
		Link:        item.Link,
		MediaURL:    item.MediaURL(),
		Description: item.Description,
		Author:      item.Author,
		AuthorID:    item.AuthorID,
		Tags:        item.Tags,
		DateTaken:   item.DateTaken,
		Published:   published,
		Queries:     []string{tag},
		ArchivedAt:  now,
	}, nil
}

// NormalizeTag is the key a search tag is recorded under.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
