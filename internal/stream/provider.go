package stream

import "context"

// TrendingSource lists currently trending items for a category hint.
// Implementations may raise quota-specific errors distinguishable via
// services.IsQuotaExceeded; any other error is treated as transient.
type TrendingSource interface {
	FetchTrendingItems(ctx context.Context, categoryHint string, maxResults int) ([]Item, error)
}

// DetailSource resolves full item records and live snapshots. FetchItemDetails
// accepts at most the provider's page size per call; callers batch.
type DetailSource interface {
	FetchItemDetails(ctx context.Context, ids []string) ([]Item, error)
	FetchStreamSnapshot(ctx context.Context, id string) (*Snapshot, error)
}

// Provider is the combined capability surface the collector depends on.
type Provider interface {
	TrendingSource
	DetailSource
}
