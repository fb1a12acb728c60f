package ports

import (
	"context"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

// DocumentIndex is the search contract of one document corpus. Both methods
// are safe for concurrent use; the retrieval merger issues them in parallel.
type DocumentIndex[D any] interface {
	// SearchText runs the relevance channel: a weighted multi-field match
	// with fuzziness against the question text.
	SearchText(ctx context.Context, question string, limit int) ([]domain.SearchHit[D], error)
	// SearchKeywords runs the keyword channel: a boolean should-match of the
	// extracted tokens, requiring at least one clause to hit.
	SearchKeywords(ctx context.Context, keywords []string, limit int) ([]domain.SearchHit[D], error)
}

// FAQIndexWriter bulk-replaces FAQ documents in the search index.
type FAQIndexWriter interface {
	IndexFAQs(ctx context.Context, docs []domain.FAQDocument) error
}

// AnswerGenerator produces free text for a prompt. Implementations bound the
// output length and enforce their own timeout.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FAQStore persists FAQ entries.
type FAQStore interface {
	ListFAQs(ctx context.Context) ([]domain.FAQEntry, error)
	GetFAQByID(ctx context.Context, id string) (*domain.FAQEntry, error)
	UpsertFAQ(ctx context.Context, entry *domain.FAQEntry) error
}

// MessageQueue publishes/consumes reindex triggers.
type MessageQueue interface {
	PublishReindex(ctx context.Context, reason string) error
	SubscribeReindex(ctx context.Context, handler func(context.Context, string) error) error
}
