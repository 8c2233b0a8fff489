package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/debuglog"
	"github.com/pders01/fotag/internal/feed"
	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/search"
	"github.com/pders01/fotag/internal/storage"
)

// services holds what the commands share: the archive, its index and the
// feed client.
type services struct {
	cfg    *config.Config
	store  *storage.Store
	index  *search.BleveEngine
	client gallery.SearchClient
}

// openServices opens the archive and, if configured, the search index.
// Without archiving the feed client is used as is.
func openServices(cfg *config.Config) (*services, error) {
	store, err := storage.NewStore(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	s := &services{cfg: cfg, store: store}

	if cfg.Database.SearchIndex != "" {
		idx, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
		if err != nil {
			// The scan engine still works without an index.
			debuglog.Warnf("opening search index %s: %v", cfg.Database.SearchIndex, err)
		} else {
			s.index = idx
		}
	}

	feedClient, err := feed.NewClient(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.client = feedClient
	if cfg.Database.Archive {
		var listeners []storage.ArchiveListener
		if s.index != nil {
			listeners = append(listeners, s.index)
		}
		s.client = storage.NewRecordingClient(feedClient, store, listeners...)
	}
	return s, nil
}

// searcher prefers the bleve index and falls back to scanning the archive.
func (s *services) searcher() search.Searcher {
	if s.index != nil {
		return s.index
	}
	return search.NewEngine(s.store)
}

// newPipeline builds an initialized gallery pipeline bound to ctx.
func (s *services) newPipeline(ctx context.Context) (*gallery.Pipeline, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return nil, err
	}
	p := gallery.NewPipeline(s.client, gallery.NewStateStore(),
		gallery.WithDebounce(s.cfg.Search.Debounce),
		gallery.WithLocation(loc),
	)
	p.Initialize(ctx)
	return p, nil
}

func (s *services) Close() error {
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
