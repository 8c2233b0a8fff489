package search

import "github.com/pders01/fotag/internal/storage"

// Searcher finds archived photos by free text.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is a single search hit.
type Result struct {
	Photo   *storage.Photo
	Score   float64
	Matches []Match
}

// Match represents where text was found
type Match struct {
	Field  string // "title", "tags", "description", "author"
	Text   string // matched text snippet
	Weight float64
}

// DefaultLimit is used when a search is asked for a non-positive limit.
const DefaultLimit = 20

var (
	_ Searcher                = (*Engine)(nil)
	_ Searcher                = (*BleveEngine)(nil)
	_ DebugStatser            = (*BleveEngine)(nil)
	_ storage.ArchiveListener = (*BleveEngine)(nil)
)
