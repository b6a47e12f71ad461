package stream

import "time"

// Format distinguishes the broad shape of a content item.
type Format string

const (
	FormatLive  Format = "live"
	FormatVideo Format = "video"
	FormatClip  Format = "clip"
)

// Item is one piece of third-party content metadata. ViewCount is the
// volatility field used for change detection; everything else is descriptive.
type Item struct {
	ID          string        `json:"id"`
	CategoryKey string        `json:"category_key"`
	Title       string        `json:"title"`
	CreatorID   string        `json:"creator_id"`
	Language    string        `json:"language"`
	Format      Format        `json:"format"`
	Duration    time.Duration `json:"duration"`
	ViewCount   int64         `json:"view_count"`
	Tags        []string      `json:"tags,omitempty"`
	PublishedAt time.Time     `json:"published_at"`
}

// Snapshot captures point-in-time live metrics for a single item.
type Snapshot struct {
	ItemID       string    `json:"item_id"`
	ViewerCount  int64     `json:"viewer_count"`
	CapturedAt   time.Time `json:"captured_at"`
	StreamUptime string    `json:"stream_uptime,omitempty"`
}
