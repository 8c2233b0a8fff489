package gallery

import "context"

// FeedResult is one response of the public photo feed.
type FeedResult struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Description string     `json:"description"`
	Modified    string     `json:"modified"`
	Generator   string     `json:"generator"`
	Items       []FeedItem `json:"items"`
}

// FeedItem is a single photo entry as the feed delivers it.
type FeedItem struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Media       FeedMedia `json:"media"`
	DateTaken   string    `json:"date_taken"`
	Description string    `json:"description"`
	Published   string    `json:"published"`
	Author      string    `json:"author"`
	AuthorID    string    `json:"author_id"`
	Tags        string    `json:"tags"`
}

type FeedMedia struct {
	M string `json:"m"`
}

// MediaURL returns the direct image URL of the item.
func (i FeedItem) MediaURL() string {
	return i.Media.M
}

// DisplayPhoto is the display-ready form of a FeedItem.
type DisplayPhoto struct {
	Title       string
	URL         string
	Description string
	Author      string
	PublishedAt string
}

// SearchClient fetches the feed for a tag.
type SearchClient interface {
	Fetch(ctx context.Context, tag string) (*FeedResult, error)
}
