package usecase

import (
	"strings"
	"unicode/utf8"
)

// Sentence-terminal markers recognized by the truncation repair: ASCII and
// full-width punctuation plus common Korean sentence-final combinations.
var sentenceEndings = []string{
	".", "!", "?", "。", "！", "？",
	"다.", "니다.", "요.", "습니다.", "습니다!", "합니다.",
}

const truncationRepairMinRunes = 20

const truncationCaveat = "\n\n(참고: 답변이 중간에 잘렸을 수 있습니다. 더 구체적인 질문을 해주시면 더 정확한 답변을 드릴 수 있습니다.)"

// repairTruncation detects a generated answer cut off mid-sentence by the
// output-length bound and repairs it: a string already ending on a terminal
// marker is returned unchanged; otherwise the trailing incomplete sentence
// is dropped at the last terminal marker, and when no marker exists anywhere
// a Korean caveat is appended instead of truncating at word level. Strings
// of at most 20 runes are returned as-is.
func repairTruncation(response string) string {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return trimmed
	}

	for _, ending := range sentenceEndings {
		if strings.HasSuffix(trimmed, ending) {
			return trimmed
		}
	}

	if utf8.RuneCountInString(trimmed) <= truncationRepairMinRunes {
		return trimmed
	}

	lastSentenceEnd := -1
	for _, ending := range sentenceEndings {
		if idx := strings.LastIndex(trimmed, ending); idx >= 0 && idx+len(ending) > lastSentenceEnd {
			lastSentenceEnd = idx + len(ending)
		}
	}

	if lastSentenceEnd > 0 && lastSentenceEnd < len(trimmed) {
		return strings.TrimSpace(trimmed[:lastSentenceEnd])
	}
	return trimmed + truncationCaveat
}
