package usecase

import (
	"sort"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

// mergeHits combines the two channel result lists into one ranked list keyed
// by document id. A document seen in both channels accumulates both weighted
// contributions; a document seen once carries a single contribution. Results
// are sorted descending by combined score; ties keep encounter order (text
// channel first), which makes the ordering deterministic per run without
// promising anything stronger.
func mergeHits[D any](
	textHits, keywordHits []domain.SearchHit[D],
	docID func(D) string,
	textWeight, keywordWeight float64,
) []domain.MergedResult[D] {
	type accumulator struct {
		doc   D
		score float64
	}

	combined := make(map[string]*accumulator, len(textHits)+len(keywordHits))
	order := make([]string, 0, len(textHits)+len(keywordHits))

	accumulate := func(hits []domain.SearchHit[D], weight float64) {
		for _, hit := range hits {
			id := docID(hit.Doc)
			if entry, seen := combined[id]; seen {
				entry.score += hit.Score * weight
				continue
			}
			combined[id] = &accumulator{doc: hit.Doc, score: hit.Score * weight}
			order = append(order, id)
		}
	}

	accumulate(textHits, textWeight)
	accumulate(keywordHits, keywordWeight)

	merged := make([]domain.MergedResult[D], 0, len(order))
	for _, id := range order {
		entry := combined[id]
		merged = append(merged, domain.MergedResult[D]{Doc: entry.doc, Score: entry.score})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}
