package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// FAQAdminService manages the persisted FAQ corpus. Every successful write
// publishes a reindex trigger so the search index catches up asynchronously;
// a publish failure is logged but does not fail the write, the periodic
// reindex will pick the change up eventually.
type FAQAdminService struct {
	store ports.FAQStore
	queue ports.MessageQueue
	log   *slog.Logger
}

func NewFAQAdminService(store ports.FAQStore, queue ports.MessageQueue, log *slog.Logger) *FAQAdminService {
	return &FAQAdminService{
		store: store,
		queue: queue,
		log:   log.With(slog.String("component", "faq_admin")),
	}
}

var _ ports.FAQManager = (*FAQAdminService)(nil)

func (s *FAQAdminService) ListFAQs(ctx context.Context) ([]domain.FAQEntry, error) {
	entries, err := s.store.ListFAQs(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrIndexQuery, "list faqs", err)
	}
	return entries, nil
}

// SaveFAQ validates and upserts an entry. A missing id means create; the id
// is assigned here so the caller sees it on the returned entry.
func (s *FAQAdminService) SaveFAQ(ctx context.Context, entry *domain.FAQEntry) error {
	if entry == nil || isBlank(entry.Question) || isBlank(entry.Answer) {
		return domain.WrapError(domain.ErrInvalidInput, "save faq", domain.ErrInvalidInput)
	}

	entry.Question = strings.TrimSpace(entry.Question)
	entry.Answer = strings.TrimSpace(entry.Answer)
	now := time.Now().UTC()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	if len(entry.Keywords) == 0 {
		entry.Keywords = extractKeywords(entry.Question)
	}

	if err := s.store.UpsertFAQ(ctx, entry); err != nil {
		return err
	}

	if err := s.queue.PublishReindex(ctx, "faq upserted: "+entry.ID); err != nil {
		s.log.WarnContext(ctx, "reindex trigger publish failed",
			slog.String("faq_id", entry.ID),
			slog.Any("error", err))
	}
	return nil
}
