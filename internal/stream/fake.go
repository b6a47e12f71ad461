package stream

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeProvider is a deterministic in-memory Provider used by tests and
// the daemon's fake-provider development mode. All mutators are safe for
// concurrent use with the fetch methods.
type FakeProvider struct {
	mu            sync.Mutex
	pageSize      int
	items         map[string][]Item
	trendingErrs  map[string]error
	detailErr     error
	trendingCalls map[string]int
	detailCalls   int
}

// NewFakeProvider returns an empty provider with a detail page size of 50.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		pageSize:      50,
		items:         make(map[string][]Item),
		trendingErrs:  make(map[string]error),
		trendingCalls: make(map[string]int),
	}
}

// PageSize returns the maximum ids accepted per FetchItemDetails call.
func (p *FakeProvider) PageSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageSize
}

// SetPageSize overrides the detail page size.
func (p *FakeProvider) SetPageSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pageSize = size
}

// Seed generates count deterministic items for a category and registers them.
// The same category and count always produce identical items.
func (p *FakeProvider) Seed(category string, count int) []Item {
	items := GenerateItems(category, count)
	p.SetItems(category, items)
	return items
}

// SetItems replaces the registered item set for a category.
func (p *FakeProvider) SetItems(category string, items []Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[category] = items
}

// BumpViews raises every view count for a category so its content hash
// changes on the next collection.
func (p *FakeProvider) BumpViews(category string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := p.items[category]
	for i := range items {
		items[i].ViewCount += 50
	}
}

// FailTrending makes trending fetches for a category return err. A nil err
// clears the failure.
func (p *FakeProvider) FailTrending(category string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.trendingErrs, category)
		return
	}
	p.trendingErrs[category] = err
}

// FailDetails makes every detail fetch return err until cleared with nil.
func (p *FakeProvider) FailDetails(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detailErr = err
}

// TrendingCalls reports how many trending fetches a category has received.
func (p *FakeProvider) TrendingCalls(category string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trendingCalls[category]
}

// DetailCalls reports the total number of detail fetches.
func (p *FakeProvider) DetailCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detailCalls
}

// FetchTrendingItems returns the seeded items for the category hint, capped
// at maxResults.
func (p *FakeProvider) FetchTrendingItems(ctx context.Context, categoryHint string, maxResults int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.trendingCalls[categoryHint]++
	if err := p.trendingErrs[categoryHint]; err != nil {
		return nil, err
	}

	items := p.items[categoryHint]
	if maxResults > 0 && len(items) > maxResults {
		items = items[:maxResults]
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out, nil
}

// FetchItemDetails resolves ids against every seeded category. Unknown ids
// are silently dropped, matching real providers.
func (p *FakeProvider) FetchItemDetails(ctx context.Context, ids []string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.detailCalls++
	if p.detailErr != nil {
		return nil, p.detailErr
	}
	if len(ids) > p.pageSize {
		return nil, fmt.Errorf("detail batch of %d exceeds page size %d", len(ids), p.pageSize)
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []Item
	for _, items := range p.items {
		for _, item := range items {
			if _, ok := wanted[item.ID]; ok {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

// FetchStreamSnapshot returns live metrics for a seeded item.
func (p *FakeProvider) FetchStreamSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, items := range p.items {
		for _, item := range items {
			if item.ID == id {
				return &Snapshot{
					ItemID:      id,
					ViewerCount: item.ViewCount,
					CapturedAt:  time.Now().UTC(),
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("snapshot: unknown item %s", id)
}

var sampleTitles = []string{
	"First playthrough, no spoilers please",
	"Speedrun attempts all night",
	"Ranked grind with the squad",
	"Chill build session and chat",
	"Boss rush challenge run",
	"Tutorial for new players",
}

var sampleLanguages = []string{"en", "de", "ja", "pt-BR", "en"}

// GenerateItems builds a deterministic item set for a category. Every third
// item is a live stream with no fixed duration.
func GenerateItems(category string, count int) []Item {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]Item, 0, count)
	for i := 0; i < count; i++ {
		item := Item{
			ID:          fmt.Sprintf("%s-item-%03d", category, i),
			CategoryKey: category,
			Title:       sampleTitles[i%len(sampleTitles)],
			CreatorID:   fmt.Sprintf("creator-%02d", i%7),
			Language:    sampleLanguages[i%len(sampleLanguages)],
			ViewCount:   int64(100 * (i + 1)),
			PublishedAt: base.Add(time.Duration(i) * time.Hour),
		}
		switch i % 3 {
		case 0:
			item.Format = FormatLive
		case 1:
			item.Format = FormatVideo
			item.Duration = time.Duration(8+i) * time.Minute
		default:
			item.Format = FormatClip
			item.Duration = time.Duration(30+i) * time.Second
		}
		items = append(items, item)
	}
	return items
}
