package usecase

import (
	"math"
	"testing"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

func faqHit(id string, score float64) domain.SearchHit[domain.FAQDocument] {
	return domain.SearchHit[domain.FAQDocument]{Doc: domain.FAQDocument{ID: id}, Score: score}
}

func faqDocID(d domain.FAQDocument) string { return d.ID }

func TestMergeHitsAccumulatesBothChannels(t *testing.T) {
	text := []domain.SearchHit[domain.FAQDocument]{faqHit("a", 1.0)}
	keyword := []domain.SearchHit[domain.FAQDocument]{faqHit("a", 1.0)}

	merged := mergeHits(text, keyword, faqDocID, 0.6, 0.4)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if math.Abs(merged[0].Score-1.0) > 1e-9 {
		t.Fatalf("expected combined score 1.0, got %f", merged[0].Score)
	}
}

func TestMergeHitsSingleChannelContribution(t *testing.T) {
	text := []domain.SearchHit[domain.FAQDocument]{faqHit("a", 1.0)}

	merged := mergeHits(text, nil, faqDocID, 0.6, 0.4)
	if len(merged) != 1 {
		t.Fatalf("expected 1 result, got %d", len(merged))
	}
	if math.Abs(merged[0].Score-0.6) > 1e-9 {
		t.Fatalf("expected score 0.6, got %f", merged[0].Score)
	}
}

func TestMergeHitsOrdersByCombinedScore(t *testing.T) {
	text := []domain.SearchHit[domain.FAQDocument]{
		faqHit("low", 0.5),
		faqHit("high", 0.8),
	}
	keyword := []domain.SearchHit[domain.FAQDocument]{
		faqHit("low", 0.2),
		faqHit("both", 1.0),
	}

	merged := mergeHits(text, keyword, faqDocID, 0.6, 0.4)
	if len(merged) != 3 {
		t.Fatalf("expected 3 results, got %d", len(merged))
	}
	// high: 0.48, both: 0.40, low: 0.30+0.08=0.38
	if merged[0].Doc.ID != "high" || merged[1].Doc.ID != "both" || merged[2].Doc.ID != "low" {
		t.Fatalf("unexpected order: %s, %s, %s",
			merged[0].Doc.ID, merged[1].Doc.ID, merged[2].Doc.ID)
	}
}

func TestMergeHitsTiesKeepEncounterOrder(t *testing.T) {
	text := []domain.SearchHit[domain.FAQDocument]{
		faqHit("first", 0.5),
		faqHit("second", 0.5),
	}

	merged := mergeHits(text, nil, faqDocID, 0.6, 0.4)
	if merged[0].Doc.ID != "first" || merged[1].Doc.ID != "second" {
		t.Fatalf("tie broke encounter order: %s before %s",
			merged[0].Doc.ID, merged[1].Doc.ID)
	}
}

func TestMergeHitsEmptyChannels(t *testing.T) {
	if merged := mergeHits[domain.FAQDocument](nil, nil, faqDocID, 0.6, 0.4); len(merged) != 0 {
		t.Fatalf("expected no results, got %d", len(merged))
	}
}
