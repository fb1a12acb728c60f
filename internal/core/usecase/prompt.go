package usecase

import (
	"fmt"
	"strings"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

func buildFAQRAGPrompt(question string, candidates []domain.MergedResult[domain.FAQDocument], contextSize int) string {
	if contextSize > len(candidates) {
		contextSize = len(candidates)
	}

	var context strings.Builder
	context.WriteString("다음은 시스템 FAQ 문서들입니다:\n\n")
	for i := 0; i < contextSize; i++ {
		doc := candidates[i].Doc
		fmt.Fprintf(&context, "[문서 %d]\n", i+1)
		context.WriteString("질문: " + doc.Question + "\n")
		context.WriteString("답변: " + doc.Answer + "\n\n")
	}

	return fmt.Sprintf(
		"%s\n\n위 FAQ 문서들을 참고하여, 다음 사용자 질문에 대해 친절하고 정확하게 답변해주세요.\n"+
			"답변은 한국어로 작성하고, FAQ 문서의 내용을 바탕으로 하지만 더 자연스럽고 이해하기 쉽게 설명해주세요.\n"+
			"만약 FAQ 문서에 관련 정보가 충분하지 않다면, 그 점을 명확히 알려주세요.\n\n"+
			"사용자 질문: %s\n\n답변:",
		context.String(), question,
	)
}

func buildFAQDefaultPrompt(question string) string {
	return fmt.Sprintf(
		"BPE Platform 시스템에 대해 다음 질문에 답변해주세요. "+
			"만약 정확한 정보를 모른다면 그 점을 명확히 알려주세요.\n\n질문: %s\n\n답변:",
		question,
	)
}

func buildSocialRAGPrompt(question string, candidates []domain.MergedResult[domain.SocialDocument], contextSize, contentLimit int) string {
	if contextSize > len(candidates) {
		contextSize = len(candidates)
	}

	var context strings.Builder
	context.WriteString("다음은 소셜 데이터에서 검색된 관련 문서들입니다:\n\n")
	for i := 0; i < contextSize; i++ {
		doc := candidates[i].Doc
		fmt.Fprintf(&context, "[문서 %d]\n", i+1)
		if doc.Title != "" {
			context.WriteString("제목: " + doc.Title + "\n")
		}
		if doc.Content != "" {
			context.WriteString("내용: " + truncateRunes(doc.Content, contentLimit) + "\n")
		}
		if doc.WriterNick != "" {
			context.WriteString("작성자: " + doc.WriterNick + "\n")
		}
		if doc.SiteName != "" {
			context.WriteString("사이트: " + doc.SiteName + "\n")
		}
		context.WriteString("\n")
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"위 문서들을 참고하여, 다음 사용자 질문에 대해 친절하고 정확하게 답변해주세요.\n"+
			"답변은 한국어로 작성하고, 문서의 내용을 바탕으로 하지만 더 자연스럽고 이해하기 쉽게 설명해주세요.\n"+
			"만약 문서에 관련 정보가 충분하지 않다면, 그 점을 명확히 알려주세요.\n"+
			"답변할 때 가능하면 구체적인 예시나 데이터를 포함해주세요.\n"+
			"답변은 완전한 문장으로 끝까지 작성해주세요.\n\n"+
			"사용자 질문: %s\n\n답변:",
		context.String(), question,
	)
}

func buildSocialDefaultPrompt(question string) string {
	return fmt.Sprintf(
		"다음 질문에 대해 답변해주세요. 만약 정확한 정보를 모른다면 그 점을 명확히 알려주세요.\n\n질문: %s\n\n답변:",
		question,
	)
}

// cleanGeneratedAnswer removes boilerplate the model tends to echo back from
// the prompt template: a literal leading answer marker or bullet.
func cleanGeneratedAnswer(response string) string {
	cleaned := strings.TrimSpace(response)
	if rest, ok := strings.CutPrefix(cleaned, "답변:"); ok {
		cleaned = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(cleaned, "- "); ok {
		cleaned = strings.TrimSpace(rest)
	}
	return cleaned
}

// truncateRunes caps a string at limit runes, appending an ellipsis marker
// when anything was dropped. limit <= 0 disables the cap.
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
