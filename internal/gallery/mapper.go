package gallery

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// DisplayLayout renders an instant the way the gallery shows it,
// e.g. "Thu Jun 27 06:17:00 EDT 2024".
const DisplayLayout = "Mon Jan 02 15:04:05 MST 2006"

var strictPolicy = bluemonday.StrictPolicy()

// Mapper converts feed items into display photos. Location decides the
// rendered time zone; nil means time.Local.
type Mapper struct {
	Location *time.Location
}

func NewMapper(loc *time.Location) *Mapper {
	return &Mapper{Location: loc}
}

func (m *Mapper) location() *time.Location {
	if m == nil || m.Location == nil {
		return time.Local
	}
	return m.Location
}

// ToDisplayPhoto maps a single item. The published instant is truncated to
// the minute.
func (m *Mapper) ToDisplayPhoto(item FeedItem) (DisplayPhoto, error) {
	published, err := parseInstant(item.Published)
	if err != nil {
		return DisplayPhoto{}, err
	}

	return DisplayPhoto{
		Title:       item.Title,
		URL:         item.MediaURL(),
		Description: item.Description,
		Author:      item.Author,
		PublishedAt: m.FormatPublished(published),
	}, nil
}

// ToDisplayPhotos maps every item or fails on the first malformed one.
func (m *Mapper) ToDisplayPhotos(items []FeedItem) ([]DisplayPhoto, error) {
	photos := make([]DisplayPhoto, 0, len(items))
	for _, item := range items {
		photo, err := m.ToDisplayPhoto(item)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}
	return photos, nil
}

// FormatPublished truncates t to the minute and renders it in the mapper's
// location.
func (m *Mapper) FormatPublished(t time.Time) string {
	return t.Truncate(time.Minute).In(m.location()).Format(DisplayLayout)
}

// ParsePublished reads back a value produced by FormatPublished.
func (m *Mapper) ParsePublished(display string) (time.Time, error) {
	t, err := time.ParseInLocation(DisplayLayout, display, m.location())
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: display, Err: err}
	}
	return t, nil
}

func parseInstant(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &MalformedTimestampError{Value: value, Err: err}
	}
	return t, nil
}

// PlainText strips markup from a feed description.
func PlainText(raw string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}
