package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/pders01/fotag/internal/config"
	"github.com/pders01/fotag/internal/gallery"
)

// DecodeJSON decodes a JSON feed response. The public feed escapes single
// quotes as \' which encoding/json rejects, so those escapes are dropped
// first.
func DecodeJSON(body []byte) (*gallery.FeedResult, error) {
	var result gallery.FeedResult
	if err := json.Unmarshal(fixQuoteEscapes(body), &result); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}
	return &result, nil
}

// fixQuoteEscapes rewrites \' to ' unless the backslash is itself escaped.
func fixQuoteEscapes(body []byte) []byte {
	if !bytes.Contains(body, []byte(`\'`)) {
		return body
	}
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			if body[i+1] == '\'' {
				out = append(out, '\'')
				i++
				continue
			}
			out = append(out, body[i], body[i+1])
			i++
			continue
		}
		out = append(out, body[i])
	}
	return out
}

// ParseSyndication parses an Atom or RSS response into the same shape the
// JSON feed has.
func ParseSyndication(body []byte, format string) (*gallery.FeedResult, error) {
	if format == config.FormatAtom {
		return parseAtom(body)
	}

	f, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return convertFeed(f), nil
}

// parseAtom goes through the atom parser directly because the generic item
// drops the author URI, which carries the author id.
func parseAtom(body []byte) (*gallery.FeedResult, error) {
	af, err := (&atom.Parser{}).Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing atom feed: %w", err)
	}
	f, err := (&gofeed.DefaultAtomTranslator{}).Translate(af)
	if err != nil {
		return nil, fmt.Errorf("translating atom feed: %w", err)
	}

	result := convertFeed(f)
	for i, entry := range af.Entries {
		if i >= len(result.Items) || result.Items[i].AuthorID != "" {
			continue
		}
		for _, author := range entry.Authors {
			if author != nil {
				result.Items[i].AuthorID = authorIDFromProfile(author.URI)
				break
			}
		}
	}
	return result, nil
}

func convertFeed(f *gofeed.Feed) *gallery.FeedResult {
	result := &gallery.FeedResult{
		Title:       f.Title,
		Link:        f.Link,
		Description: f.Description,
		Modified:    instant(f.UpdatedParsed, f.Updated),
		Generator:   f.Generator,
		Items:       make([]gallery.FeedItem, 0, len(f.Items)),
	}
	for _, item := range f.Items {
		result.Items = append(result.Items, convertItem(item))
	}
	return result
}

func convertItem(item *gofeed.Item) gallery.FeedItem {
	published := instant(item.PublishedParsed, item.Published)
	if published == "" {
		published = instant(item.UpdatedParsed, item.Updated)
	}

	description := item.Content
	if description == "" {
		description = item.Description
	}

	return gallery.FeedItem{
		Title:       item.Title,
		Link:        item.Link,
		Media:       gallery.FeedMedia{M: mediaURL(item)},
		DateTaken:   extensionValue(item.Extensions, "dc", "date.Taken"),
		Description: description,
		Published:   published,
		Author:      authorName(item),
		AuthorID:    extensionValue(item.Extensions, "flickr", "nsid"),
		Tags:        strings.Join(item.Categories, " "),
	}
}

func instant(parsed *time.Time, raw string) string {
	if parsed != nil {
		return parsed.UTC().Format(time.RFC3339)
	}
	return raw
}

func mediaURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" {
			return enc.URL
		}
	}
	if item.Image != nil {
		return item.Image.URL
	}
	return ""
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

func extensionValue(exts ext.Extensions, namespace, name string) string {
	if exts == nil {
		return ""
	}
	values := exts[namespace][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}

// authorIDFromProfile extracts the id from a profile URL of the form
// https://www.flickr.com/people/<id>/.
func authorIDFromProfile(profile string) string {
	u, err := url.Parse(profile)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "people" {
			return parts[i+1]
		}
	}
	return ""
}
