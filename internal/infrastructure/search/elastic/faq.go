package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

// FAQIndex runs the two FAQ retrieval channels against one Elasticsearch
// index and rebuilds it from the store of record.
type FAQIndex struct {
	client *Client
	index  string
}

func NewFAQIndex(client *Client, index string) *FAQIndex {
	return &FAQIndex{client: client, index: index}
}

var (
	_ ports.DocumentIndex[domain.FAQDocument] = (*FAQIndex)(nil)
	_ ports.FAQIndexWriter                    = (*FAQIndex)(nil)
)

// SearchText is the relevance channel: a best-fields multi_match over
// question, answer and keywords with automatic fuzziness.
func (i *FAQIndex) SearchText(ctx context.Context, question string, limit int) ([]domain.SearchHit[domain.FAQDocument], error) {
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     question,
				"fields":    []string{"question^3", "answer^2", "keywords^1.5"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
	}

	hits, err := i.client.search(ctx, "elastic.faq.text", i.index, body)
	if err != nil {
		return nil, err
	}
	return decodeFAQHits(hits)
}

// SearchKeywords is the keyword channel: one boosted match clause per
// extracted keyword, at least one required to hit.
func (i *FAQIndex) SearchKeywords(ctx context.Context, keywords []string, limit int) ([]domain.SearchHit[domain.FAQDocument], error) {
	should := make([]map[string]any, 0, len(keywords))
	for _, keyword := range keywords {
		should = append(should, map[string]any{
			"match": map[string]any{
				"keywords": map[string]any{
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
	}

	hits, err := i.client.search(ctx, "elastic.faq.keywords", i.index, body)
	if err != nil {
		return nil, err
	}
	return decodeFAQHits(hits)
}

// IndexFAQs replaces the index contents with the given documents: clear,
// then one bulk write with refresh.
func (i *FAQIndex) IndexFAQs(ctx context.Context, docs []domain.FAQDocument) error {
	if err := i.client.deleteAll(ctx, i.index); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_id": doc.ID}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(faqSource{
			Question: doc.Question,
			Answer:   doc.Answer,
			Keywords: doc.Keywords,
			Category: doc.Category,
		}); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}
	return i.client.bulk(ctx, i.index, buf.Bytes())
}

type faqSource struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords,omitempty"`
	Category string   `json:"category,omitempty"`
}

func decodeFAQHits(hits []rawHit) ([]domain.SearchHit[domain.FAQDocument], error) {
	out := make([]domain.SearchHit[domain.FAQDocument], 0, len(hits))
	for _, hit := range hits {
		var src faqSource
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, fmt.Errorf("decode faq document %s: %w", hit.ID, err)
		}
		out = append(out, domain.SearchHit[domain.FAQDocument]{
			Doc: domain.FAQDocument{
				ID:       hit.ID,
				Question: src.Question,
				Answer:   src.Answer,
				Keywords: src.Keywords,
				Category: src.Category,
			},
			Score: hit.Score,
		})
	}
	return out, nil
}
