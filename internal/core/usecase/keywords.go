package usecase

import (
	"strings"
	"unicode/utf8"
)

// Korean grammatical particles stripped before keyword matching. This is a
// stopword heuristic, not morphological analysis: compound suffixes and
// conjugated endings pass through untouched, and non-Korean input degrades
// to plain whitespace tokenization with the minimum-length filter.
var keywordParticles = []string{
	"은", "는", "이", "가", "을", "를", "에", "에서", "의", "로", "으로",
	"와", "과", "도", "만", "부터", "까지", "께서", "한테", "에게",
	"에게서", "한테서", "처럼", "같이", "보다", "마다", "대로",
}

var keywordParticleSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(keywordParticles))
	for _, p := range keywordParticles {
		set[p] = struct{}{}
	}
	return set
}()

const minKeywordRunes = 2

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// extractKeywords lowercases and tokenizes a question, drops standalone
// particle tokens, trims one trailing attached particle per token, and keeps
// only tokens of at least two runes.
func extractKeywords(question string) []string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	if normalized == "" {
		return nil
	}

	var keywords []string
	for _, token := range strings.Fields(normalized) {
		if _, isParticle := keywordParticleSet[token]; isParticle {
			continue
		}
		token = trimParticleSuffix(token)
		if utf8.RuneCountInString(token) >= minKeywordRunes {
			keywords = append(keywords, token)
		}
	}
	return keywords
}

// trimParticleSuffix strips the longest matching particle from the end of a
// token, as long as a meaningful stem remains. Applied once; stacked
// particles are rare enough to ignore here.
func trimParticleSuffix(token string) string {
	best := ""
	for _, particle := range keywordParticles {
		if len(particle) <= len(best) {
			continue
		}
		if !strings.HasSuffix(token, particle) {
			continue
		}
		stem := strings.TrimSuffix(token, particle)
		if utf8.RuneCountInString(stem) >= minKeywordRunes {
			best = particle
		}
	}
	return strings.TrimSuffix(token, best)
}
