package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

type faqIndexFake struct {
	textHits    []domain.SearchHit[domain.FAQDocument]
	keywordHits []domain.SearchHit[domain.FAQDocument]
	textErr     error
	keywordErr  error

	textCalls    int
	keywordCalls int
}

func (f *faqIndexFake) SearchText(context.Context, string, int) ([]domain.SearchHit[domain.FAQDocument], error) {
	f.textCalls++
	return f.textHits, f.textErr
}

func (f *faqIndexFake) SearchKeywords(context.Context, []string, int) ([]domain.SearchHit[domain.FAQDocument], error) {
	f.keywordCalls++
	return f.keywordHits, f.keywordErr
}

type generatorFake struct {
	response string
	err      error

	prompt string
	calls  int
}

func (f *generatorFake) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newFAQService(index *faqIndexFake, generator *generatorFake) *FAQAnswerService {
	retriever := NewRetriever[domain.FAQDocument](index, func(d domain.FAQDocument) string { return d.ID },
		RetrievalConfig{TextWeight: 0.6, KeywordWeight: 0.4, ChannelLimit: 5})
	cfg := FAQAnswerConfig{DirectThreshold: 0.4, AlternativeFloor: 0.2, ContextSize: 3}
	if generator == nil {
		return NewFAQAnswerService(retriever, nil, cfg, testLogger())
	}
	return NewFAQAnswerService(retriever, generator, cfg, testLogger())
}

func TestFAQAnswerEmptyQuestion(t *testing.T) {
	svc := newFAQService(&faqIndexFake{}, nil)
	answer := svc.Answer(context.Background(), "   ")
	if answer.Answer != msgEmptyQuestion {
		t.Fatalf("expected empty-question message, got %q", answer.Answer)
	}
	if answer.Found || answer.Mode != domain.ModeEmptyQuestion {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
}

func TestFAQAnswerIndexUnavailable(t *testing.T) {
	svc := NewFAQAnswerService(nil, nil, FAQAnswerConfig{DirectThreshold: 0.4}, testLogger())
	answer := svc.Answer(context.Background(), "질문")
	if answer.Answer != msgChatbotUnavailable || answer.Found {
		t.Fatalf("expected unavailable message, got %q found=%v", answer.Answer, answer.Found)
	}
}

func TestFAQAnswerSearchFailure(t *testing.T) {
	index := &faqIndexFake{textErr: errors.New("index down")}
	svc := newFAQService(index, nil)
	answer := svc.Answer(context.Background(), "시스템 오류")
	if answer.Answer != msgSearchFailed {
		t.Fatalf("expected search-failed message, got %q", answer.Answer)
	}
	if answer.Found || answer.Mode != domain.ModeSearchError {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
}

func TestFAQAnswerHighScoreReturnsStoredAnswerWithoutGeneration(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "저장된 답변입니다."}, Score: 1.0},
		},
	}
	generator := &generatorFake{response: "생성된 답변"}
	svc := newFAQService(index, generator)

	answer := svc.Answer(context.Background(), "비밀번호 변경 방법")
	if answer.Answer != "저장된 답변입니다." {
		t.Fatalf("expected stored answer, got %q", answer.Answer)
	}
	if !answer.Found || answer.Mode != domain.ModeDirect {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
	if answer.Confidence != 0.6 {
		t.Fatalf("expected confidence 0.6, got %f", answer.Confidence)
	}
	if generator.calls != 0 {
		t.Fatalf("generator must not be called on a direct answer, got %d calls", generator.calls)
	}
}

func TestFAQAnswerLowScoreUsesGeneration(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Question: "질문", Answer: "저장된 답변입니다."}, Score: 0.5},
		},
	}
	generator := &generatorFake{response: "답변: 생성된 답변입니다."}
	svc := newFAQService(index, generator)

	answer := svc.Answer(context.Background(), "비슷한 질문")
	if answer.Answer != "생성된 답변입니다." {
		t.Fatalf("expected cleaned generated answer, got %q", answer.Answer)
	}
	if answer.AlternativeAnswer != "저장된 답변입니다." {
		t.Fatalf("expected stored answer as alternative, got %q", answer.AlternativeAnswer)
	}
	// 0.8 is the default RAGConfidenceScale.
	if math.Abs(answer.Confidence-0.5*0.6*0.8) > 1e-9 {
		t.Fatalf("expected scaled confidence, got %f", answer.Confidence)
	}
	if !answer.Found || answer.Mode != domain.ModeRAG {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
	if !strings.Contains(generator.prompt, "저장된 답변입니다.") {
		t.Fatalf("prompt missing retrieved context: %q", generator.prompt)
	}
}

func TestFAQAnswerRAGConfidenceScaleConfigurable(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "저장된 답변입니다."}, Score: 0.5},
		},
	}
	generator := &generatorFake{response: "생성된 답변입니다."}
	retriever := NewRetriever[domain.FAQDocument](index, func(d domain.FAQDocument) string { return d.ID },
		RetrievalConfig{TextWeight: 0.6, KeywordWeight: 0.4, ChannelLimit: 5})
	svc := NewFAQAnswerService(retriever, generator,
		FAQAnswerConfig{DirectThreshold: 0.4, RAGConfidenceScale: 0.5}, testLogger())

	answer := svc.Answer(context.Background(), "비슷한 질문")
	if math.Abs(answer.Confidence-0.5*0.6*0.5) > 1e-9 {
		t.Fatalf("configured scale not applied, got %f", answer.Confidence)
	}
}

func TestFAQAnswerGenerationFailureFallsBackToStoredAnswer(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "저장된 답변입니다."}, Score: 0.5},
		},
	}
	generator := &generatorFake{err: errors.New("llm down")}
	svc := newFAQService(index, generator)

	answer := svc.Answer(context.Background(), "비슷한 질문")
	if answer.Answer != "저장된 답변입니다." {
		t.Fatalf("expected stored answer fallback, got %q", answer.Answer)
	}
	if !answer.Found || answer.Mode != domain.ModeFallback {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
	if math.Abs(answer.Confidence-0.5*0.6) > 1e-9 {
		t.Fatalf("expected unscaled confidence, got %f", answer.Confidence)
	}
}

func TestFAQAnswerNoGeneratorOffersAlternative(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "저장된 답변입니다."}, Score: 0.5},
		},
	}
	svc := newFAQService(index, nil)

	answer := svc.Answer(context.Background(), "비슷한 질문")
	if answer.Found {
		t.Fatalf("expected not found without generator below threshold")
	}
	if !strings.Contains(answer.Answer, "찾을 수 없습니다") {
		t.Fatalf("expected not-found message, got %q", answer.Answer)
	}
	if answer.AlternativeAnswer != "저장된 답변입니다." {
		t.Fatalf("expected alternative answer, got %q", answer.AlternativeAnswer)
	}
}

func TestFAQAnswerNoGeneratorLowScoreNoAlternative(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "저장된 답변입니다."}, Score: 0.1},
		},
	}
	svc := newFAQService(index, nil)

	answer := svc.Answer(context.Background(), "관련 없는 질문")
	if answer.AlternativeAnswer != "" {
		t.Fatalf("expected no alternative below floor, got %q", answer.AlternativeAnswer)
	}
	if answer.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %f", answer.Confidence)
	}
}

func TestFAQAnswerNoCandidatesUsesContextFreeGeneration(t *testing.T) {
	generator := &generatorFake{response: "일반 지식 기반 답변입니다."}
	svc := newFAQService(&faqIndexFake{}, generator)

	answer := svc.Answer(context.Background(), "등록되지 않은 질문")
	if answer.Answer != "일반 지식 기반 답변입니다." {
		t.Fatalf("expected generated answer, got %q", answer.Answer)
	}
	if answer.Found {
		t.Fatalf("context-free answers must not be reported as found")
	}
	if !strings.Contains(generator.prompt, "등록되지 않은 질문") {
		t.Fatalf("prompt missing question: %q", generator.prompt)
	}
}

func TestFAQAnswerNoCandidatesNoGenerator(t *testing.T) {
	svc := newFAQService(&faqIndexFake{}, nil)
	answer := svc.Answer(context.Background(), "등록되지 않은 질문")
	if !strings.Contains(answer.Answer, "등록되지 않은 질문") {
		t.Fatalf("not-found message must echo the question, got %q", answer.Answer)
	}
	if answer.Found || answer.Mode != domain.ModeNotFound {
		t.Fatalf("unexpected answer state: found=%v mode=%s", answer.Found, answer.Mode)
	}
}

func TestFAQAnswerQueriesBothChannelsConcurrently(t *testing.T) {
	index := &faqIndexFake{
		textHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "답"}, Score: 1.0},
		},
		keywordHits: []domain.SearchHit[domain.FAQDocument]{
			{Doc: domain.FAQDocument{ID: "1", Answer: "답"}, Score: 1.0},
		},
	}
	svc := newFAQService(index, nil)

	answer := svc.Answer(context.Background(), "시스템 설정 방법")
	if index.textCalls != 1 || index.keywordCalls != 1 {
		t.Fatalf("expected both channels queried, got text=%d keyword=%d",
			index.textCalls, index.keywordCalls)
	}
	if answer.Confidence != 1.0 {
		t.Fatalf("expected combined confidence 1.0, got %f", answer.Confidence)
	}
}
