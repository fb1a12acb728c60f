package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

const (
	msgSocialNotFoundFmt = "죄송합니다. '%s'에 대한 관련 데이터를 찾을 수 없습니다. 다른 검색어로 시도해주세요."
)

// SocialAnswerConfig tunes the data chatbot answer strategy.
type SocialAnswerConfig struct {
	// SourceDisplayFloor gates which retrieved documents are surfaced back to
	// the user as sources. The gate is two-stage: the candidate set as a whole
	// must clear the floor on mean or maximum score before any individual
	// document is considered.
	SourceDisplayFloor float64
	// ContextSize bounds how many candidates feed the generation prompt.
	ContextSize int
	// ContextContentLimit caps the content of each prompt document, in runes.
	ContextContentLimit int
	// DirectContentLimit caps the content echoed in the generation-free
	// response, in runes.
	DirectContentLimit int
}

// SocialAnswerService answers questions against the crawled social-media
// corpus. Unlike the FAQ service there is no direct-answer shortcut: every
// answer with candidates goes through generation when a generator is wired,
// and falls back to a templated echo of the best document otherwise.
type SocialAnswerService struct {
	retriever *Retriever[domain.SocialDocument]
	generator ports.AnswerGenerator
	cfg       SocialAnswerConfig
	log       *slog.Logger
}

func NewSocialAnswerService(
	retriever *Retriever[domain.SocialDocument],
	generator ports.AnswerGenerator,
	cfg SocialAnswerConfig,
	log *slog.Logger,
) *SocialAnswerService {
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = 5
	}
	if cfg.ContextContentLimit <= 0 {
		cfg.ContextContentLimit = 500
	}
	if cfg.DirectContentLimit <= 0 {
		cfg.DirectContentLimit = 300
	}
	return &SocialAnswerService{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		log:       log.With(slog.String("component", "social_answer")),
	}
}

var _ ports.SocialAnswerer = (*SocialAnswerService)(nil)

// Answer resolves a user question to a SocialAnswer. Like the FAQ variant it
// never returns an error; Sources is always non-nil on a found answer even
// when the display gate empties it.
func (s *SocialAnswerService) Answer(ctx context.Context, question string) domain.SocialAnswer {
	if isBlank(question) {
		return domain.SocialAnswer{Answer: msgEmptyQuestion, Mode: domain.ModeEmptyQuestion}
	}
	if s.retriever == nil {
		s.log.WarnContext(ctx, "social index unavailable, refusing question")
		return domain.SocialAnswer{Answer: msgChatbotUnavailable, Mode: domain.ModeUnavailable}
	}

	candidates, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		s.log.ErrorContext(ctx, "social retrieval failed", slog.Any("error", err))
		return domain.SocialAnswer{Answer: msgSearchFailed, Mode: domain.ModeSearchError}
	}

	if len(candidates) == 0 {
		answer := fmt.Sprintf(msgSocialNotFoundFmt, question)
		if s.generator != nil {
			generated, genErr := s.generator.Generate(ctx, buildSocialDefaultPrompt(question))
			if genErr == nil {
				answer = repairTruncation(cleanGeneratedAnswer(generated))
			} else {
				s.log.WarnContext(ctx, "context-free generation failed", slog.Any("error", genErr))
			}
		}
		return domain.SocialAnswer{Answer: answer, Mode: domain.ModeNotFound}
	}

	best := candidates[0]
	s.log.DebugContext(ctx, "social candidates merged",
		slog.Int("count", len(candidates)),
		slog.Float64("best_score", best.Score))

	var (
		answer string
		mode   domain.AnswerMode
	)
	if s.generator != nil {
		generated, genErr := s.generator.Generate(ctx, buildSocialRAGPrompt(question, candidates, s.cfg.ContextSize, s.cfg.ContextContentLimit))
		if genErr == nil {
			answer = repairTruncation(cleanGeneratedAnswer(generated))
			mode = domain.ModeRAG
		} else {
			s.log.WarnContext(ctx, "social generation failed, using templated response",
				slog.Any("error", genErr))
		}
	}
	if answer == "" {
		answer = s.directResponse(best.Doc)
		mode = domain.ModeDirect
	}

	return domain.SocialAnswer{
		Answer:     answer,
		Sources:    s.displaySources(candidates),
		Confidence: meanScore(candidates),
		Found:      true,
		Mode:       mode,
	}
}

// directResponse formats the best document into a templated answer when no
// generated text is available.
func (s *SocialAnswerService) directResponse(doc domain.SocialDocument) string {
	var b strings.Builder
	b.WriteString("검색된 문서를 찾았습니다:\n\n")
	if doc.Title != "" {
		b.WriteString("제목: " + doc.Title + "\n")
	}
	if doc.Content != "" {
		b.WriteString("내용: " + truncateRunes(doc.Content, s.cfg.DirectContentLimit) + "\n")
	}
	return strings.TrimSpace(b.String())
}

// displaySources applies the two-stage display gate: the candidate set must
// clear SourceDisplayFloor on mean or maximum score, then each document must
// clear it individually. A set that fails the first stage yields an empty,
// non-nil slice.
func (s *SocialAnswerService) displaySources(candidates []domain.MergedResult[domain.SocialDocument]) []domain.SocialSource {
	sources := make([]domain.SocialSource, 0, len(candidates))

	mean := meanScore(candidates)
	max := candidates[0].Score
	for _, c := range candidates[1:] {
		if c.Score > max {
			max = c.Score
		}
	}
	if mean < s.cfg.SourceDisplayFloor && max < s.cfg.SourceDisplayFloor {
		return sources
	}

	for _, c := range candidates {
		if c.Score >= s.cfg.SourceDisplayFloor {
			sources = append(sources, domain.SocialSource{SocialDocument: c.Doc, Score: c.Score})
		}
	}
	return sources
}

func meanScore[D any](results []domain.MergedResult[D]) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return sum / float64(len(results))
}
