package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// ReindexService rebuilds the FAQ search index from the store of record.
// Rebuilds are full replacements; the corpus is small enough that partial
// updates are not worth the bookkeeping.
type ReindexService struct {
	store  ports.FAQStore
	writer ports.FAQIndexWriter
	log    *slog.Logger
}

func NewReindexService(store ports.FAQStore, writer ports.FAQIndexWriter, log *slog.Logger) *ReindexService {
	return &ReindexService{
		store:  store,
		writer: writer,
		log:    log.With(slog.String("component", "reindex")),
	}
}

var _ ports.Reindexer = (*ReindexService)(nil)

// Reindex loads every stored FAQ entry and writes the resulting documents
// into the search index, returning the number of documents indexed.
func (s *ReindexService) Reindex(ctx context.Context) (int, error) {
	started := time.Now()

	entries, err := s.store.ListFAQs(ctx)
	if err != nil {
		return 0, domain.WrapError(domain.ErrIndexQuery, "load faq entries", err)
	}

	docs := make([]domain.FAQDocument, 0, len(entries))
	for i := range entries {
		docs = append(docs, entries[i].Document())
	}

	if err := s.writer.IndexFAQs(ctx, docs); err != nil {
		return 0, domain.WrapError(domain.ErrIndexUnavailable, "write faq index", err)
	}

	s.log.InfoContext(ctx, "faq index rebuilt",
		slog.Int("documents", len(docs)),
		slog.Duration("took", time.Since(started)))
	return len(docs), nil
}
