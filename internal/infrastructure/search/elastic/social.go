package elastic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// socialSourceFields keeps responses small; the crawled posts carry far more
// fields than the chatbot surfaces.
var socialSourceFields = []string{
	"an_title", "an_content", "au_url", "wc_writer_nick",
	"wc_sitename", "wc_boardname", "wc_writer_id", "in_date", "in_write_date",
}

// SocialIndex runs the retrieval channels against the crawled social-media
// indices, addressed by a wildcard pattern. Read-only; the crawler pipeline
// owns the writes.
type SocialIndex struct {
	client  *Client
	pattern string
}

func NewSocialIndex(client *Client, pattern string) *SocialIndex {
	return &SocialIndex{client: client, pattern: pattern}
}

var _ ports.DocumentIndex[domain.SocialDocument] = (*SocialIndex)(nil)

// SearchText is the relevance channel over title, content, writer and site
// name, title weighted highest.
func (i *SocialIndex) SearchText(ctx context.Context, question string, limit int) ([]domain.SearchHit[domain.SocialDocument], error) {
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     question,
				"fields":    []string{"an_title^3", "an_content^2", "wc_writer_nick^1", "wc_sitename^1"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
		"_source": map[string]any{"includes": socialSourceFields},
	}

	hits, err := i.client.search(ctx, "elastic.social.text", i.pattern, body)
	if err != nil {
		return nil, err
	}
	return decodeSocialHits(hits)
}

// SearchKeywords is the keyword channel on post titles.
func (i *SocialIndex) SearchKeywords(ctx context.Context, keywords []string, limit int) ([]domain.SearchHit[domain.SocialDocument], error) {
	should := make([]map[string]any, 0, len(keywords))
	for _, keyword := range keywords {
		should = append(should, map[string]any{
			"match": map[string]any{
				"an_title": map[string]any{
					"query": keyword,
					"boost": 2.0,
				},
			},
		})
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
			},
		},
		"_source": map[string]any{"includes": socialSourceFields},
	}

	hits, err := i.client.search(ctx, "elastic.social.keywords", i.pattern, body)
	if err != nil {
		return nil, err
	}
	return decodeSocialHits(hits)
}

type socialSource struct {
	Title      string `json:"an_title"`
	Content    string `json:"an_content"`
	URL        string `json:"au_url"`
	WriterNick string `json:"wc_writer_nick"`
	WriterID   string `json:"wc_writer_id"`
	SiteName   string `json:"wc_sitename"`
	BoardName  string `json:"wc_boardname"`
	WriteDate  int    `json:"in_write_date"`
	Date       int    `json:"in_date"`
}

func decodeSocialHits(hits []rawHit) ([]domain.SearchHit[domain.SocialDocument], error) {
	out := make([]domain.SearchHit[domain.SocialDocument], 0, len(hits))
	for _, hit := range hits {
		var src socialSource
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("decode social document %s: %w", hit.ID, err)
		}
		out = append(out, domain.SearchHit[domain.SocialDocument]{
			Doc: domain.SocialDocument{
				ID:         hit.ID,
				Index:      hit.Index,
				Title:      src.Title,
				Content:    src.Content,
				URL:        src.URL,
				WriterNick: src.WriterNick,
				WriterID:   src.WriterID,
				SiteName:   src.SiteName,
				BoardName:  src.BoardName,
				WriteDate:  src.WriteDate,
				Date:       src.Date,
			},
			Score: hit.Score,
		})
	}
	return out, nil
}
