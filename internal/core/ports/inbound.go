package ports

import (
	"context"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

// FAQAnswerer is the inbound contract of the FAQ chatbot. Every failure mode
// resolves to a valid FAQAnswer; the method never returns an error.
type FAQAnswerer interface {
	Answer(ctx context.Context, question string) domain.FAQAnswer
}

// SocialAnswerer is the inbound contract of the data chatbot.
type SocialAnswerer interface {
	Answer(ctx context.Context, question string) domain.SocialAnswer
}

// FAQManager exposes FAQ administration: listing entries and upserting with
// a reindex trigger.
type FAQManager interface {
	ListFAQs(ctx context.Context) ([]domain.FAQEntry, error)
	SaveFAQ(ctx context.Context, entry *domain.FAQEntry) error
}

// Reindexer rebuilds the FAQ search index from the store.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}
