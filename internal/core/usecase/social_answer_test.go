package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

type socialIndexFake struct {
	textHits    []domain.SearchHit[domain.SocialDocument]
	keywordHits []domain.SearchHit[domain.SocialDocument]
	textErr     error
}

func (f *socialIndexFake) SearchText(context.Context, string, int) ([]domain.SearchHit[domain.SocialDocument], error) {
	return f.textHits, f.textErr
}

func (f *socialIndexFake) SearchKeywords(context.Context, []string, int) ([]domain.SearchHit[domain.SocialDocument], error) {
	return f.keywordHits, nil
}

func socialHit(id, title string, score float64) domain.SearchHit[domain.SocialDocument] {
	return domain.SearchHit[domain.SocialDocument]{
		Doc:   domain.SocialDocument{ID: id, Title: title, Content: "본문 내용"},
		Score: score,
	}
}

func newSocialService(index *socialIndexFake, generator *generatorFake) *SocialAnswerService {
	retriever := NewRetriever[domain.SocialDocument](index, func(d domain.SocialDocument) string { return d.ID },
		RetrievalConfig{TextWeight: 0.6, KeywordWeight: 0.4, ChannelLimit: 5, MinHitScore: 0.5})
	cfg := SocialAnswerConfig{SourceDisplayFloor: 0.8, ContextSize: 5, ContextContentLimit: 500, DirectContentLimit: 300}
	if generator == nil {
		return NewSocialAnswerService(retriever, nil, cfg, testLogger())
	}
	return NewSocialAnswerService(retriever, generator, cfg, testLogger())
}

func TestSocialAnswerEmptyQuestion(t *testing.T) {
	svc := newSocialService(&socialIndexFake{}, nil)
	answer := svc.Answer(context.Background(), "")
	if answer.Answer != msgEmptyQuestion || answer.Found {
		t.Fatalf("expected empty-question message, got %q found=%v", answer.Answer, answer.Found)
	}
}

func TestSocialAnswerSearchFailure(t *testing.T) {
	svc := newSocialService(&socialIndexFake{textErr: errors.New("index down")}, nil)
	answer := svc.Answer(context.Background(), "최근 반응")
	if answer.Answer != msgSearchFailed || answer.Mode != domain.ModeSearchError {
		t.Fatalf("expected search-failed message, got %q mode=%s", answer.Answer, answer.Mode)
	}
}

func TestSocialAnswerInclusionFloorFiltersWeakCandidates(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			socialHit("weak", "약한 매칭", 0.3),
		},
	}
	svc := newSocialService(index, nil)

	// Raw 0.3 is below the 0.5 inclusion floor.
	answer := svc.Answer(context.Background(), "최근 반응")
	if answer.Found || answer.Mode != domain.ModeNotFound {
		t.Fatalf("expected not found below inclusion floor, got found=%v mode=%s", answer.Found, answer.Mode)
	}
	if !strings.Contains(answer.Answer, "최근 반응") {
		t.Fatalf("not-found message must echo the question, got %q", answer.Answer)
	}
}

func TestSocialAnswerInclusionFloorAppliesToRawScores(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			socialHit("1", "단일 채널 매칭", 0.7),
		},
	}
	svc := newSocialService(index, nil)

	// Raw 0.7 clears the 0.5 floor even though the weighted combined score
	// (0.7 * 0.6 = 0.42) falls below it: the floor gates admission into the
	// candidate set, not the merged ranking.
	answer := svc.Answer(context.Background(), "최근 반응")
	if !answer.Found {
		t.Fatalf("raw score above the floor must be admitted, got mode=%s", answer.Mode)
	}
	if math.Abs(answer.Confidence-0.42) > 1e-9 {
		t.Fatalf("expected combined confidence 0.42, got %f", answer.Confidence)
	}
}

func TestSocialAnswerGenerationPath(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			socialHit("1", "첫 번째 문서", 2.0),
			socialHit("2", "두 번째 문서", 1.0),
		},
	}
	generator := &generatorFake{response: "생성된 요약 답변입니다."}
	svc := newSocialService(index, generator)

	answer := svc.Answer(context.Background(), "여론 동향")
	if answer.Answer != "생성된 요약 답변입니다." {
		t.Fatalf("expected generated answer, got %q", answer.Answer)
	}
	if !answer.Found || answer.Mode != domain.ModeRAG {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
	// Combined: 1.2 and 0.6 after the inclusion floor keeps both.
	if math.Abs(answer.Confidence-0.9) > 1e-9 {
		t.Fatalf("expected mean confidence 0.9, got %f", answer.Confidence)
	}
	if !strings.Contains(generator.prompt, "첫 번째 문서") {
		t.Fatalf("prompt missing retrieved context: %q", generator.prompt)
	}
}

func TestSocialAnswerGenerationFailureUsesTemplatedResponse(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			{Doc: domain.SocialDocument{
				ID: "1", Title: "문서 제목", Content: "본문 내용",
				WriterNick: "작성자닉", SiteName: "사이트명",
			}, Score: 2.0},
		},
	}
	generator := &generatorFake{err: errors.New("llm down")}
	svc := newSocialService(index, generator)

	answer := svc.Answer(context.Background(), "여론 동향")
	if !strings.Contains(answer.Answer, "검색된 문서를 찾았습니다") {
		t.Fatalf("expected templated response, got %q", answer.Answer)
	}
	if !strings.Contains(answer.Answer, "문서 제목") || !strings.Contains(answer.Answer, "본문 내용") {
		t.Fatalf("templated response missing title or content, got %q", answer.Answer)
	}
	// Only title and content are echoed; writer and site stay out.
	if strings.Contains(answer.Answer, "작성자닉") || strings.Contains(answer.Answer, "사이트명") {
		t.Fatalf("templated response must carry title and content only, got %q", answer.Answer)
	}
	if !answer.Found || answer.Mode != domain.ModeDirect {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
}

func TestSocialAnswerDirectResponseCapsContent(t *testing.T) {
	long := strings.Repeat("가", 400)
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			{Doc: domain.SocialDocument{ID: "1", Title: "긴 문서", Content: long}, Score: 2.0},
		},
	}
	svc := newSocialService(index, nil)

	answer := svc.Answer(context.Background(), "여론 동향")
	if strings.Contains(answer.Answer, long) {
		t.Fatalf("content was not capped")
	}
	if !strings.Contains(answer.Answer, strings.Repeat("가", 300)+"...") {
		t.Fatalf("expected 300-rune cap with ellipsis")
	}
}

func TestSocialAnswerSourceGateBlocksWeakSets(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			socialHit("1", "문서 하나", 1.0),
			socialHit("2", "문서 둘", 0.9),
		},
	}
	svc := newSocialService(index, nil)

	// Combined scores 0.6 and 0.54: mean 0.57, max 0.6, both under 0.8.
	answer := svc.Answer(context.Background(), "여론 동향")
	if !answer.Found {
		t.Fatalf("expected found answer")
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("expected empty non-nil sources, got %v", answer.Sources)
	}
}

func TestSocialAnswerSourceGatePassesPerDocument(t *testing.T) {
	index := &socialIndexFake{
		textHits: []domain.SearchHit[domain.SocialDocument]{
			socialHit("strong", "강한 매칭", 2.0),
			socialHit("weak", "약한 매칭", 1.0),
		},
	}
	svc := newSocialService(index, nil)

	// Combined 1.2 and 0.6: max clears 0.8 so the set passes, but only the
	// strong document clears the per-document floor.
	answer := svc.Answer(context.Background(), "여론 동향")
	if len(answer.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(answer.Sources))
	}
	if answer.Sources[0].ID != "strong" {
		t.Fatalf("expected strong source, got %s", answer.Sources[0].ID)
	}
	if math.Abs(answer.Sources[0].Score-1.2) > 1e-9 {
		t.Fatalf("expected source score 1.2, got %f", answer.Sources[0].Score)
	}
}
