package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// FAQRepository is the Postgres store of record for FAQ entries. The search
// index is derived from it by the reindexer and never written directly by
// admins.
type FAQRepository struct {
	db *sql.DB
}

func NewFAQRepository(db *sql.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

var _ ports.FAQStore = (*FAQRepository)(nil)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *FAQRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS faq_entries (
	id TEXT PRIMARY KEY,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	category TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_faq_entries_category ON faq_entries(category);
CREATE INDEX IF NOT EXISTS idx_faq_entries_updated_at ON faq_entries(updated_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *FAQRepository) ListFAQs(ctx context.Context) ([]domain.FAQEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, question, answer, keywords, category, created_at, updated_at
FROM faq_entries
ORDER BY created_at
`)
	if err != nil {
		return nil, fmt.Errorf("query faq entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.FAQEntry
	for rows.Next() {
		entry, err := scanFAQEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faq entries: %w", err)
	}
	return entries, nil
}

func (r *FAQRepository) GetFAQByID(ctx context.Context, id string) (*domain.FAQEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, question, answer, keywords, category, created_at, updated_at
FROM faq_entries
WHERE id = $1
`, id)

	entry, err := scanFAQEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFAQNotFound, "get faq "+id, err)
		}
		return nil, err
	}
	return entry, nil
}

func (r *FAQRepository) UpsertFAQ(ctx context.Context, entry *domain.FAQEntry) error {
	keywordsJSON, err := json.Marshal(entry.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO faq_entries (id, question, answer, keywords, category, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	question = EXCLUDED.question,
	answer = EXCLUDED.answer,
	keywords = EXCLUDED.keywords,
	category = EXCLUDED.category,
	updated_at = EXCLUDED.updated_at
`,
		entry.ID, entry.Question, entry.Answer, keywordsJSON, entry.Category,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert faq entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFAQEntry(row rowScanner) (*domain.FAQEntry, error) {
	var entry domain.FAQEntry
	var keywordsRaw []byte
	var category sql.NullString

	err := row.Scan(
		&entry.ID, &entry.Question, &entry.Answer, &keywordsRaw,
		&category, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan faq entry: %w", err)
	}

	if len(keywordsRaw) > 0 {
		if err := json.Unmarshal(keywordsRaw, &entry.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords: %w", err)
		}
	}
	entry.Category = category.String
	return &entry, nil
}

// SeedDefaults inserts the starter FAQ set when the table is empty, so a
// fresh deployment answers something useful before any admin curation.
func (r *FAQRepository) SeedDefaults(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM faq_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count faq entries: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, seed := range defaultFAQs {
		entry := seed
		entry.ID = uuid.NewString()
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if err := r.UpsertFAQ(ctx, &entry); err != nil {
			return 0, err
		}
	}
	return len(defaultFAQs), nil
}

var defaultFAQs = []domain.FAQEntry{
	{
		Question: "BPE Platform이 무엇인가요?",
		Answer:   "BPE Platform은 소셜 데이터 수집과 분석, 검색 기능을 제공하는 데이터 플랫폼입니다.",
		Keywords: []string{"bpe", "platform", "플랫폼", "소개"},
		Category: "일반",
	},
	{
		Question: "비밀번호를 변경하려면 어떻게 하나요?",
		Answer:   "로그인 후 설정 메뉴의 계정 정보에서 비밀번호를 변경할 수 있습니다.",
		Keywords: []string{"비밀번호", "변경", "계정"},
		Category: "계정",
	},
	{
		Question: "데이터 검색은 어떻게 하나요?",
		Answer:   "데이터 챗봇에 질문을 입력하면 수집된 소셜 데이터에서 관련 문서를 검색해 답변합니다.",
		Keywords: []string{"데이터", "검색", "챗봇"},
		Category: "사용법",
	},
	{
		Question: "검색 결과가 나오지 않아요.",
		Answer:   "검색어를 더 구체적으로 입력하거나 다른 키워드로 다시 시도해주세요. 문제가 계속되면 관리자에게 문의해주세요.",
		Keywords: []string{"검색", "결과", "문제"},
		Category: "문제해결",
	},
	{
		Question: "수집 데이터는 얼마나 자주 갱신되나요?",
		Answer:   "소셜 데이터는 수집 파이프라인을 통해 주기적으로 갱신되며, 갱신 주기는 수집 대상 사이트에 따라 다릅니다.",
		Keywords: []string{"수집", "갱신", "주기"},
		Category: "데이터",
	},
}
