package bleveindex

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
)

const indexingBatchSize = 100

const (
	fieldQuestion = "question"
	fieldAnswer   = "answer"
	fieldKeywords = "keywords"
	fieldCategory = "category"
)

const (
	boostQuestion = 3.0
	boostAnswer   = 2.0
	boostKeywords = 1.5
	boostKeyword  = 2.0
)

// FAQIndex is an embedded bleve alternative to the Elasticsearch FAQ index
// for single-node deployments without a search cluster. It serves the same
// two retrieval channels with the same field weighting.
type FAQIndex struct {
	index bleve.Index
}

// New opens or creates a persistent index at path.
func New(path string) (*FAQIndex, error) {
	index, err := bleve.New(path, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
	}
	return &FAQIndex{index: index}, nil
}

// NewInMemory creates a throwaway index, used in tests.
func NewInMemory() (*FAQIndex, error) {
	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory bleve index: %w", err)
	}
	return &FAQIndex{index: index}, nil
}

var (
	_ ports.DocumentIndex[domain.FAQDocument] = (*FAQIndex)(nil)
	_ ports.FAQIndexWriter                    = (*FAQIndex)(nil)
)

func createIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	questionMapping := bleve.NewTextFieldMapping()
	questionMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldQuestion, questionMapping)

	answerMapping := bleve.NewTextFieldMapping()
	answerMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldAnswer, answerMapping)

	keywordsMapping := bleve.NewTextFieldMapping()
	keywordsMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(fieldKeywords, keywordsMapping)

	// Categories are filter labels, matched whole.
	categoryMapping := bleve.NewTextFieldMapping()
	categoryMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldCategory, categoryMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

type faqIndexDoc struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

// SearchText mirrors the Elasticsearch relevance channel: a boosted
// disjunction over question, answer and keywords with light fuzziness.
func (f *FAQIndex) SearchText(_ context.Context, question string, limit int) ([]domain.SearchHit[domain.FAQDocument], error) {
	disjunct := bleve.NewDisjunctionQuery()

	questionQuery := bleve.NewMatchQuery(question)
	questionQuery.SetField(fieldQuestion)
	questionQuery.SetBoost(boostQuestion)
	questionQuery.SetFuzziness(1)
	disjunct.AddQuery(questionQuery)

	answerQuery := bleve.NewMatchQuery(question)
	answerQuery.SetField(fieldAnswer)
	answerQuery.SetBoost(boostAnswer)
	answerQuery.SetFuzziness(1)
	disjunct.AddQuery(answerQuery)

	keywordsQuery := bleve.NewMatchQuery(question)
	keywordsQuery.SetField(fieldKeywords)
	keywordsQuery.SetBoost(boostKeywords)
	disjunct.AddQuery(keywordsQuery)

	return f.search(disjunct, limit)
}

// SearchKeywords mirrors the keyword channel: one boosted clause per
// keyword, any single match qualifying.
func (f *FAQIndex) SearchKeywords(_ context.Context, keywords []string, limit int) ([]domain.SearchHit[domain.FAQDocument], error) {
	disjunct := bleve.NewDisjunctionQuery()
	disjunct.SetMin(1)
	for _, kw := range keywords {
		clause := bleve.NewMatchQuery(kw)
		clause.SetField(fieldKeywords)
		clause.SetBoost(boostKeyword)
		disjunct.AddQuery(clause)
	}
	return f.search(disjunct, limit)
}

func (f *FAQIndex) search(q query.Query, limit int) ([]domain.SearchHit[domain.FAQDocument], error) {
	request := bleve.NewSearchRequestOptions(q, limit, 0, false)
	request.Fields = []string{fieldQuestion, fieldAnswer, fieldKeywords, fieldCategory}

	result, err := f.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]domain.SearchHit[domain.FAQDocument], 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, domain.SearchHit[domain.FAQDocument]{
			Doc:   docFromFields(hit.ID, hit.Fields),
			Score: hit.Score,
		})
	}
	return hits, nil
}

// IndexFAQs rebuilds the index to exactly the given documents: stale entries
// are removed, everything else is upserted in batches.
func (f *FAQIndex) IndexFAQs(_ context.Context, docs []domain.FAQDocument) error {
	keep := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		keep[doc.ID] = struct{}{}
	}

	stale, err := f.staleIDs(keep)
	if err != nil {
		return err
	}

	batch := f.index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := f.index.Batch(batch); err != nil {
			return fmt.Errorf("bleve batch: %w", err)
		}
		batch = f.index.NewBatch()
		return nil
	}

	for _, id := range stale {
		batch.Delete(id)
		if batch.Size() >= indexingBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	for _, doc := range docs {
		err := batch.Index(doc.ID, faqIndexDoc{
			Question: doc.Question,
			Answer:   doc.Answer,
			Keywords: doc.Keywords,
			Category: doc.Category,
		})
		if err != nil {
			return fmt.Errorf("bleve index document %s: %w", doc.ID, err)
		}
		if batch.Size() >= indexingBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

func (f *FAQIndex) staleIDs(keep map[string]struct{}) ([]string, error) {
	count, err := f.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("bleve doc count: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	request := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	result, err := f.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("bleve list documents: %w", err)
	}

	var stale []string
	for _, hit := range result.Hits {
		if _, ok := keep[hit.ID]; !ok {
			stale = append(stale, hit.ID)
		}
	}
	return stale, nil
}

func (f *FAQIndex) Close() error {
	return f.index.Close()
}

func docFromFields(id string, fields map[string]any) domain.FAQDocument {
	doc := domain.FAQDocument{ID: id}
	if question, ok := fields[fieldQuestion].(string); ok {
		doc.Question = question
	}
	if answer, ok := fields[fieldAnswer].(string); ok {
		doc.Answer = answer
	}
	if category, ok := fields[fieldCategory].(string); ok {
		doc.Category = category
	}
	// A single-element array field comes back as a bare string.
	switch keywords := fields[fieldKeywords].(type) {
	case string:
		doc.Keywords = []string{keywords}
	case []any:
		for _, kw := range keywords {
			if s, ok := kw.(string); ok {
				doc.Keywords = append(doc.Keywords, s)
			}
		}
	}
	return doc
}
