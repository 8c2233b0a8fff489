package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/fotag/internal/gallery"
	"github.com/pders01/fotag/internal/storage"
)

// PhotoSource lists archived photos.
type PhotoSource interface {
	AllPhotos() ([]*storage.Photo, error)
}

// Engine scores every archived photo on each search. It needs no index and
// is used when the bleve index is disabled.
type Engine struct {
	source PhotoSource
	now    func() time.Time
}

// NewEngine creates a new scanning search engine
func NewEngine(source PhotoSource) *Engine {
	return &Engine{source: source, now: time.Now}
}

// Search scores title, tags, description and author of every photo.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	photos, err := e.source.AllPhotos()
	if err != nil {
		return nil, err
	}

	results := []*Result{}
	for _, photo := range photos {
		if result := e.searchPhoto(photo, terms); result != nil {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchPhoto(photo *storage.Photo, terms []string) *Result {
	var matches []Match
	var totalScore float64

	add := func(field, text, snippet string, weight float64) {
		if score := e.scoreField(text, terms, weight); score > 0 {
			matches = append(matches, Match{Field: field, Text: snippet, Weight: score})
			totalScore += score
		}
	}

	add("title", photo.Title, photo.Title, 4.0)
	tags := photo.Tags + " " + strings.Join(photo.Queries, " ")
	add("tags", tags, strings.TrimSpace(tags), 3.0)
	description := gallery.PlainText(photo.Description)
	add("description", description, e.findBestSnippet(description, terms, 150), 2.0)
	add("author", photo.Author, photo.Author, 1.0)

	if totalScore == 0 {
		return nil
	}
	totalScore *= 1.0 + e.recencyBoost(photo.Published)

	return &Result{Photo: photo, Score: totalScore, Matches: matches}
}

// scoreField calculates relevance score for a field
func (e *Engine) scoreField(text string, terms []string, weight float64) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		// Substring match anywhere in the field
		if strings.Contains(lower, term) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, term):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	tf := float64(matchedTerms) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet finds the most relevant text snippet containing search terms
func (e *Engine) findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize >= len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(window, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// recencyBoost gives up to 10% to photos published within the last week.
func (e *Engine) recencyBoost(published time.Time) float64 {
	if published.IsZero() {
		return 0
	}
	age := e.now().Sub(published)
	const week = 7 * 24 * time.Hour
	if age < 0 || age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}

// tokenize breaks text into lower-case searchable terms of two or more
// characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
