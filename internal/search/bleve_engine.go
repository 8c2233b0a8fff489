package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/fotag/internal/debuglog"
	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/storage"
)

// PhotoStore is what the bleve engine needs from the archive.
type PhotoStore interface {
	PhotoSource
	GetPhoto(id string) (*storage.Photo, error)
}

// BleveEngine keeps a full-text index of archived photos.
type BleveEngine struct {
	store PhotoStore
	idx   bleve.Index
}

// field boosts, highest first
var boosts = []struct {
	field  string
	match  float64
	prefix float64
}{
	{"title", 4.0, 3.5},
	{"tags", 3.0, 2.6},
	{"queries", 2.5, 2.0},
	{"description", 2.0, 1.8},
	{"author", 1.0, 0.8},
}

// NewBleveEngine creates or opens a bleve index at indexPath and indexes the
// photos already archived.
func NewBleveEngine(store PhotoStore, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(indexPath, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	return newEngine(store, idx)
}

// NewMemoryEngine builds an in-memory index, used by tests and when no
// index path is configured.
func NewMemoryEngine(store PhotoStore) (*BleveEngine, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return newEngine(store, idx)
}

func newEngine(store PhotoStore, idx bleve.Index) (*BleveEngine, error) {
	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()
	for _, b := range boosts {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = true
		fm.IncludeTermVectors = b.field == "title"
		dm.AddFieldMappingsAt(b.field, fm)
	}

	link := bleve.NewTextFieldMapping()
	link.Analyzer = standard.Name
	link.Store = true
	link.Index = false
	dm.AddFieldMappingsAt("link", link)

	im.DefaultMapping = dm
	return im
}

func photoDocument(p *storage.Photo) map[string]any {
	return map[string]any{
		"title":       p.Title,
		"tags":        p.Tags,
		"queries":     strings.Join(p.Queries, " "),
		"description": gallery.PlainText(p.Description),
		"author":      p.Author,
		"link":        p.Link,
	}
}

func (b *BleveEngine) reindexAll() error {
	photos, err := b.store.AllPhotos()
	if err != nil {
		return fmt.Errorf("loading archived photos: %w", err)
	}
	return b.index(photos)
}

func (b *BleveEngine) index(photos []*storage.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, p := range photos {
		if err := batch.Index(p.ID, photoDocument(p)); err != nil {
			return fmt.Errorf("indexing photo %s: %w", p.ID, err)
		}
	}
	return b.idx.Batch(batch)
}

// Search runs an OR of per-term match and prefix queries across the photo
// fields, boosted by field.
func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		for _, f := range boosts {
			qm := bleve.NewMatchQuery(tok)
			qm.SetField(f.field)
			qm.SetBoost(f.match)
			qs = append(qs, qm)

			qp := bleve.NewPrefixQuery(tok)
			qp.SetField(f.field)
			qp.SetBoost(f.prefix)
			qs = append(qs, qp)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "tags", "queries", "description", "author", "link"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		photo, err := b.store.GetPhoto(h.ID)
		if err != nil {
			// Index entry without archive record; rebuild what the index stored.
			photo = &storage.Photo{ID: h.ID}
			photo.Title, _ = h.Fields["title"].(string)
			photo.Tags, _ = h.Fields["tags"].(string)
			photo.Description, _ = h.Fields["description"].(string)
			photo.Author, _ = h.Fields["author"].(string)
			photo.Link, _ = h.Fields["link"].(string)
		}
		out = append(out, &Result{Photo: photo, Score: h.Score})
	}
	return out, nil
}

// OnPhotosArchived indexes freshly archived photos.
func (b *BleveEngine) OnPhotosArchived(tag string, photos []*storage.Photo) {
	if err := b.index(photos); err != nil {
		debuglog.Warnf("indexing photos for %q: %v", tag, err)
		return
	}
	debuglog.Debugf("indexed %d photos for %q", len(photos), tag)
}

// Refresh re-indexes photos whose archive record changed.
func (b *BleveEngine) Refresh(photos []*storage.Photo) error {
	return b.index(photos)
}

// Remove drops photos from the index.
func (b *BleveEngine) Remove(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	batch := b.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return b.idx.Batch(batch)
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
