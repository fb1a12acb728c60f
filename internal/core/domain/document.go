package domain

import "time"

// FAQDocument is one entry of the FAQ search index. Instances are read-only;
// per-query relevance lives in SearchHit/MergedResult, not on the document.
type FAQDocument struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
	Category string   `json:"category,omitempty"`
}

// SocialDocument is one crawled social-media post from the data index.
// Field names follow the upstream index schema (an_*, wc_*, in_*).
type SocialDocument struct {
	ID         string `json:"id"`
	Index      string `json:"index"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	URL        string `json:"url,omitempty"`
	WriterNick string `json:"writerNick,omitempty"`
	WriterID   string `json:"writerId,omitempty"`
	SiteName   string `json:"siteName,omitempty"`
	BoardName  string `json:"boardName,omitempty"`
	WriteDate  int    `json:"writeDate,omitempty"`
	Date       int    `json:"date,omitempty"`
}

// SearchHit is a single raw result from one retrieval channel. It only
// exists for the duration of a merge.
type SearchHit[D any] struct {
	Doc   D
	Score float64
}

// MergedResult carries the channel-weighted combined score for a document.
// The score ranks results within one request and is never persisted.
type MergedResult[D any] struct {
	Doc   D
	Score float64
}

// FAQEntry is the persisted form of an FAQ document, as stored in Postgres
// and fed into the search index by the reindexer.
type FAQEntry struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Keywords  []string  `json:"keywords"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document returns the index representation of the entry.
func (e *FAQEntry) Document() FAQDocument {
	return FAQDocument{
		ID:       e.ID,
		Question: e.Question,
		Answer:   e.Answer,
		Keywords: e.Keywords,
		Category: e.Category,
	}
}
