package analysis

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"vantage/internal/config"
	"vantage/internal/statestore"
)

const NameRegional = "regional"

// LanguageShare is one language's slice of a category's content.
type LanguageShare struct {
	Tag         string  `json:"tag"`
	DisplayName string  `json:"display_name"`
	Count       int     `json:"count"`
	Share       float64 `json:"share"`
}

// RegionalInsight describes the language mix of a category, ordered by share
// descending.
type RegionalInsight struct {
	Languages []LanguageShare `json:"languages"`
	Dominant  string          `json:"dominant"`
}

// RegionalAnalyzer groups a category's items by their BCP 47 language tags.
// Unparseable tags are grouped under "und".
type RegionalAnalyzer struct {
	itemAnalyzer
}

func NewRegionalAnalyzer(cfg *config.Config, store *statestore.Store) *RegionalAnalyzer {
	return &RegionalAnalyzer{itemAnalyzer{cfg: cfg, store: store}}
}

func (a *RegionalAnalyzer) Name() string { return NameRegional }

func (a *RegionalAnalyzer) Analyze(ctx context.Context, categoryKey string) (*Result, error) {
	items, err := a.loadItems(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	if !a.enough(items) {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[canonicalLanguageTag(item.Language)]++
	}

	namer := display.English.Languages()
	total := float64(len(items))
	insight := RegionalInsight{Languages: make([]LanguageShare, 0, len(counts))}
	for tag, count := range counts {
		share := LanguageShare{
			Tag:         tag,
			DisplayName: languageDisplayName(namer, tag),
			Count:       count,
			Share:       float64(count) / total,
		}
		insight.Languages = append(insight.Languages, share)
	}
	sort.Slice(insight.Languages, func(i, j int) bool {
		if insight.Languages[i].Count != insight.Languages[j].Count {
			return insight.Languages[i].Count > insight.Languages[j].Count
		}
		return insight.Languages[i].Tag < insight.Languages[j].Tag
	})
	if len(insight.Languages) > 0 {
		insight.Dominant = insight.Languages[0].DisplayName
	}

	return newResult(a.cfg, NameRegional, categoryKey, insight, items)
}

func canonicalLanguageTag(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "und"
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "und"
	}
	return tag.String()
}

func languageDisplayName(namer display.Namer, tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return "Unknown"
	}
	if name := namer.Name(parsed); name != "" {
		return name
	}
	return tag
}

// DecodeRegionalInsight unpacks a regional result payload.
func DecodeRegionalInsight(result *Result) (*RegionalInsight, error) {
	var insight RegionalInsight
	if err := decodePayload(result, NameRegional, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}
