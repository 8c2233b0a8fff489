package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/fotag/internal/gallery"
)

// ErrNotFound is returned when a lookup has no record.
var ErrNotFound = errors.New("not found")

var (
	searchesBucket = []byte("searches")
	photosBucket   = []byte("photos")
)

type Store struct {
	db  *bolt.DB
	now func() time.Time
}

// NewStore opens (or creates) the archive at dbPath. timeout bounds the wait
// for the file lock; zero means one second.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{searchesBucket, photosBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSearch stores one successful run of tag and archives its items. A
// photo already archived keeps its first ArchivedAt and gains tag in its
// Queries. The stored photos are returned in feed order. A malformed item
// fails the whole run and nothing is stored.
func (s *Store) RecordSearch(tag string, items []gallery.FeedItem) ([]*Photo, error) {
	tag = NormalizeTag(tag)
	if tag == "" {
		return nil, fmt.Errorf("recording search: empty tag")
	}
	now := s.now().UTC()
	stored := make([]*Photo, 0, len(items))

	err := s.db.Update(func(tx *bolt.Tx) error {
		searches := tx.Bucket(searchesBucket)
		record := SearchRecord{Tag: tag}
		if data := searches.Get([]byte(tag)); data != nil {
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("decoding search %q: %w", tag, err)
			}
		}
		record.Runs++
		record.LastRun = now
		record.LastCount = len(items)
		if err := putJSON(searches, tag, record); err != nil {
			return err
		}

		photos := tx.Bucket(photosBucket)
		for _, item := range items {
			photo, err := NewPhoto(tag, item, now)
			if err != nil {
				return fmt.Errorf("archiving %q: %w", tag, err)
			}
			if data := photos.Get([]byte(photo.ID)); data != nil {
				var existing Photo
				if err := json.Unmarshal(data, &existing); err == nil {
					photo.ArchivedAt = existing.ArchivedAt
					photo.Queries = existing.Queries
					if !existing.HasQuery(tag) {
						photo.Queries = append(photo.Queries, tag)
					}
				}
			}
			if err := putJSON(photos, photo.ID, photo); err != nil {
				return err
			}
			stored = append(stored, photo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// GetSearch returns the record for tag or ErrNotFound.
func (s *Store) GetSearch(tag string) (*SearchRecord, error) {
	tag = NormalizeTag(tag)
	var record SearchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(searchesBucket).Get([]byte(tag))
		if data == nil {
			return fmt.Errorf("search %q: %w", tag, ErrNotFound)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// RecentSearches returns search records, most recently run first. A
// non-positive limit returns all of them.
func (s *Store) RecentSearches(limit int) ([]*SearchRecord, error) {
	var records []*SearchRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(searchesBucket).ForEach(func(_ []byte, v []byte) error {
			var record SearchRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil
			}
			records = append(records, &record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].LastRun.Equal(records[j].LastRun) {
			return records[i].Tag < records[j].Tag
		}
		return records[i].LastRun.After(records[j].LastRun)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// GetPhoto returns the photo with id or ErrNotFound.
func (s *Store) GetPhoto(id string) (*Photo, error) {
	var photo Photo
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(photosBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &photo)
	})
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetPhotos returns photos returned by tag, newest first. An empty tag
// matches every photo; a non-positive limit returns all matches.
func (s *Store) GetPhotos(tag string, limit int) ([]*Photo, error) {
	tag = NormalizeTag(tag)
	var photos []*Photo
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(photosBucket).ForEach(func(_ []byte, v []byte) error {
			var photo Photo
			if err := json.Unmarshal(v, &photo); err != nil {
				return nil
			}
			if tag == "" || photo.HasQuery(tag) {
				photos = append(photos, &photo)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(photos, func(i, j int) bool {
		if photos[i].Published.Equal(photos[j].Published) {
			return photos[i].ID < photos[j].ID
		}
		return photos[i].Published.After(photos[j].Published)
	})
	if limit > 0 && len(photos) > limit {
		photos = photos[:limit]
	}
	return photos, nil
}

// AllPhotos returns every archived photo, newest first.
func (s *Store) AllPhotos() ([]*Photo, error) {
	return s.GetPhotos("", 0)
}

// DeleteSearch removes the record for tag. Photos no other search returned
// are removed with it; their ids are returned along with the photos that
// only lost the tag.
func (s *Store) DeleteSearch(tag string) (removed []string, updated []*Photo, err error) {
	tag = NormalizeTag(tag)
	err = s.db.Update(func(tx *bolt.Tx) error {
		searches := tx.Bucket(searchesBucket)
		if searches.Get([]byte(tag)) == nil {
			return fmt.Errorf("search %q: %w", tag, ErrNotFound)
		}
		if err := searches.Delete([]byte(tag)); err != nil {
			return err
		}

		photos := tx.Bucket(photosBucket)
		var orphaned []string
		var shared []*Photo
		err := photos.ForEach(func(k, v []byte) error {
			var photo Photo
			if err := json.Unmarshal(v, &photo); err != nil || !photo.HasQuery(tag) {
				return nil
			}
			if len(photo.Queries) == 1 {
				orphaned = append(orphaned, string(k))
				return nil
			}
			remaining := make([]string, 0, len(photo.Queries)-1)
			for _, q := range photo.Queries {
				if q != tag {
					remaining = append(remaining, q)
				}
			}
			photo.Queries = remaining
			shared = append(shared, &photo)
			return nil
		})
		if err != nil {
			return err
		}
		removed, updated = orphaned, shared

		// The bucket is not modified while ForEach iterates it.
		for _, id := range orphaned {
			if err := photos.Delete([]byte(id)); err != nil {
				return err
			}
		}
		for _, photo := range shared {
			if err := putJSON(photos, photo.ID, photo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return removed, updated, nil
}

func putJSON(b *bolt.Bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return b.Put([]byte(key), data)
}
