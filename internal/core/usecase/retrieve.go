package usecase

import (
	"context"
	"sync"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// RetrievalConfig tunes the dual-channel retrieval. The weights and floors
// come from configuration rather than constants; none of the default values
// were produced by a documented tuning process.
type RetrievalConfig struct {
	TextWeight    float64
	KeywordWeight float64
	ChannelLimit  int

	// MinHitScore drops raw channel hits below the floor before any channel
	// weighting is applied. Zero disables the filter (FAQ variant); the
	// social variant uses it as its candidate inclusion floor.
	MinHitScore float64
}

// Retriever runs the text-relevance and keyword-match channels against one
// document index and merges them into a single ranked candidate list.
type Retriever[D any] struct {
	index ports.DocumentIndex[D]
	docID func(D) string
	cfg   RetrievalConfig
}

func NewRetriever[D any](index ports.DocumentIndex[D], docID func(D) string, cfg RetrievalConfig) *Retriever[D] {
	if cfg.ChannelLimit <= 0 {
		cfg.ChannelLimit = 5
	}
	return &Retriever[D]{index: index, docID: docID, cfg: cfg}
}

// Retrieve issues both channel queries concurrently and joins before
// merging; the channels are independent and read-only, so no ordering
// dependency exists between them. The keyword channel is skipped entirely
// when no keywords survive extraction. A hard failure on either channel
// surfaces as ErrIndexQuery for the caller to convert into a search-failed
// response.
func (r *Retriever[D]) Retrieve(ctx context.Context, question string) ([]domain.MergedResult[D], error) {
	keywords := extractKeywords(question)

	var (
		wg       sync.WaitGroup
		textHits []domain.SearchHit[D]
		textErr  error
		kwHits   []domain.SearchHit[D]
		kwErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		textHits, textErr = r.index.SearchText(ctx, question, r.cfg.ChannelLimit)
	}()

	if len(keywords) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kwHits, kwErr = r.index.SearchKeywords(ctx, keywords, r.cfg.ChannelLimit)
		}()
	}
	wg.Wait()

	if textErr != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "text channel search", textErr)
	}
	if kwErr != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "keyword channel search", kwErr)
	}

	if r.cfg.MinHitScore > 0 {
		textHits = filterHits(textHits, r.cfg.MinHitScore)
		kwHits = filterHits(kwHits, r.cfg.MinHitScore)
	}
	return mergeHits(textHits, kwHits, r.docID, r.cfg.TextWeight, r.cfg.KeywordWeight), nil
}

func filterHits[D any](hits []domain.SearchHit[D], floor float64) []domain.SearchHit[D] {
	filtered := hits[:0]
	for _, hit := range hits {
		if hit.Score >= floor {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}
