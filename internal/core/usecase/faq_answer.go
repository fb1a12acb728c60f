package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// User-facing messages of the FAQ chatbot. Every control path ends on one of
// these or on retrieved/generated content; the service never surfaces raw
// errors to the client.
const (
	msgEmptyQuestion      = "질문을 입력해주세요."
	msgChatbotUnavailable = "죄송합니다. 현재 챗봇 기능을 사용할 수 없습니다. 잠시 후 다시 시도해주세요."
	msgSearchFailed       = "검색 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	msgFAQNotFoundFmt     = "죄송합니다. '%s'에 대한 답변을 찾을 수 없습니다. 다른 질문을 해주시거나 관리자에게 문의해주세요."
)

// FAQAnswerConfig tunes the FAQ answer strategy thresholds.
type FAQAnswerConfig struct {
	// DirectThreshold is the combined score at or above which the stored
	// answer is returned verbatim without generation.
	DirectThreshold float64
	// AlternativeFloor is the combined score at or above which the best
	// stored answer is offered as an alternative on a not-found response.
	AlternativeFloor float64
	// ContextSize bounds how many candidates feed the generation prompt.
	ContextSize int
	// RAGConfidenceScale discounts the top retrieval score when the answer
	// text is model-generated rather than the stored answer itself.
	RAGConfidenceScale float64
}

// FAQAnswerService answers questions against the FAQ corpus: dual-channel
// retrieval, a direct-answer shortcut for high-confidence matches, and
// retrieval-augmented generation below the shortcut. The retriever and the
// generator are both optional; the service degrades instead of failing.
type FAQAnswerService struct {
	retriever *Retriever[domain.FAQDocument]
	generator ports.AnswerGenerator
	cfg       FAQAnswerConfig
	log       *slog.Logger
}

func NewFAQAnswerService(
	retriever *Retriever[domain.FAQDocument],
	generator ports.AnswerGenerator,
	cfg FAQAnswerConfig,
	log *slog.Logger,
) *FAQAnswerService {
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = 3
	}
	if cfg.RAGConfidenceScale <= 0 {
		cfg.RAGConfidenceScale = 0.8
	}
	return &FAQAnswerService{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		log:       log.With(slog.String("component", "faq_answer")),
	}
}

var _ ports.FAQAnswerer = (*FAQAnswerService)(nil)

// Answer resolves a user question to a FAQAnswer. It never returns an error:
// every failure mode maps to a complete answer with Found reporting whether
// usable content was located.
func (s *FAQAnswerService) Answer(ctx context.Context, question string) domain.FAQAnswer {
	if isBlank(question) {
		return domain.FAQAnswer{Answer: msgEmptyQuestion, Mode: domain.ModeEmptyQuestion}
	}
	if s.retriever == nil {
		s.log.WarnContext(ctx, "faq index unavailable, refusing question")
		return domain.FAQAnswer{Answer: msgChatbotUnavailable, Mode: domain.ModeUnavailable}
	}

	candidates, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.log.ErrorContext(ctx, "faq retrieval failed", slog.Any("error", err))
		return domain.FAQAnswer{Answer: msgSearchFailed, Mode: domain.ModeSearchError}
	}

	if len(candidates) == 0 {
		return s.answerWithoutContext(ctx, question)
	}

	best := candidates[0]
	s.log.DebugContext(ctx, "faq candidates merged",
		slog.Int("count", len(candidates)),
		slog.Float64("best_score", best.Score))

	if best.Score >= s.cfg.DirectThreshold {
		return domain.FAQAnswer{
			Answer:     best.Doc.Answer,
			Confidence: best.Score,
			Found:      true,
			Mode:       domain.ModeDirect,
		}
	}

	if s.generator != nil {
		generated, genErr := s.generator.Generate(ctx, buildFAQRAGPrompt(question, candidates, s.cfg.ContextSize))
		if genErr == nil {
			return domain.FAQAnswer{
				Answer:            repairTruncation(cleanGeneratedAnswer(generated)),
				AlternativeAnswer: best.Doc.Answer,
				Confidence:        best.Score * s.cfg.RAGConfidenceScale,
				Found:             true,
				Mode:              domain.ModeRAG,
			}
		}
		s.log.WarnContext(ctx, "faq generation failed, falling back to stored answer",
			slog.Any("error", genErr))
		return domain.FAQAnswer{
			Answer:     best.Doc.Answer,
			Confidence: best.Score,
			Found:      true,
			Mode:       domain.ModeFallback,
		}
	}

	answer := domain.FAQAnswer{
		Answer: fmt.Sprintf(msgFAQNotFoundFmt, question),
		Mode:   domain.ModeFallback,
	}
	if best.Score >= s.cfg.AlternativeFloor {
		answer.AlternativeAnswer = best.Doc.Answer
		answer.Confidence = best.Score
	}
	return answer
}

// answerWithoutContext handles the empty-candidate case: try a context-free
// generation when a generator is wired, otherwise return the static
// not-found message. Either way the answer is reported as not found.
func (s *FAQAnswerService) answerWithoutContext(ctx context.Context, question string) domain.FAQAnswer {
	if s.generator != nil {
		generated, err := s.generator.Generate(ctx, buildFAQDefaultPrompt(question))
		if err == nil {
			return domain.FAQAnswer{
				Answer: repairTruncation(cleanGeneratedAnswer(generated)),
				Mode:   domain.ModeNotFound,
			}
		}
		s.log.WarnContext(ctx, "context-free generation failed", slog.Any("error", err))
	}
	return domain.FAQAnswer{
		Answer: fmt.Sprintf(msgFAQNotFoundFmt, question),
		Mode:   domain.ModeNotFound,
	}
}
