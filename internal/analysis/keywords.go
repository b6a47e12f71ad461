package analysis

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"vantage/internal/config"
	"vantage/internal/statestore"
)

const NameTitleKeywords = "title_keywords"

const keywordLimit = 10

// KeywordCount is one recurring title term and its occurrence count.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// KeywordInsight lists the most frequent meaningful words across a category's
// item titles, capped at ten, ordered by count descending.
type KeywordInsight struct {
	Keywords    []KeywordCount `json:"keywords"`
	TitlesSeen  int            `json:"titles_seen"`
	UniqueWords int            `json:"unique_words"`
}

// KeywordAnalyzer extracts recurring terms from item titles. Tokens shorter
// than three runes and common English stopwords are dropped.
type KeywordAnalyzer struct {
	itemAnalyzer
}

func NewKeywordAnalyzer(cfg *config.Config, store *statestore.Store) *KeywordAnalyzer {
	return &KeywordAnalyzer{itemAnalyzer{cfg: cfg, store: store}}
}

func (a *KeywordAnalyzer) Name() string { return NameTitleKeywords }

var stopwords = map[string]struct{}{
	"and": {}, "are": {}, "for": {}, "from": {}, "has": {}, "how": {},
	"its": {}, "new": {}, "not": {}, "our": {}, "the": {}, "this": {},
	"that": {}, "was": {}, "with": {}, "you": {}, "your": {},
}

func (a *KeywordAnalyzer) Analyze(ctx context.Context, categoryKey string) (*Result, error) {
	items, err := a.loadItems(ctx, categoryKey)
	if err != nil {
		return nil, err
	}
	if !a.enough(items) {
		return nil, nil
	}

	counts := make(map[string]int)
	titles := 0
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		titles++
		for _, word := range tokenizeTitle(title) {
			counts[word]++
		}
	}

	keywords := make([]KeywordCount, 0, len(counts))
	for word, count := range counts {
		keywords = append(keywords, KeywordCount{Word: word, Count: count})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Word < keywords[j].Word
	})

	insight := KeywordInsight{
		Keywords:    keywords,
		TitlesSeen:  titles,
		UniqueWords: len(counts),
	}
	if len(insight.Keywords) > keywordLimit {
		insight.Keywords = insight.Keywords[:keywordLimit]
	}

	return newResult(a.cfg, NameTitleKeywords, categoryKey, insight, items)
}

func tokenizeTitle(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := fields[:0]
	for _, field := range fields {
		if len([]rune(field)) < 3 {
			continue
		}
		if _, skip := stopwords[field]; skip {
			continue
		}
		words = append(words, field)
	}
	return words
}

// DecodeKeywordInsight unpacks a title_keywords result payload.
func DecodeKeywordInsight(result *Result) (*KeywordInsight, error) {
	var insight KeywordInsight
	if err := decodePayload(result, NameTitleKeywords, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}
