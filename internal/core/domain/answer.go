package domain

// AnswerMode labels how a response was produced. Used for logging and
// metrics, not serialized to clients.
type AnswerMode string

const (
	ModeDirect        AnswerMode = "direct"
	ModeRAG           AnswerMode = "rag"
	ModeFallback      AnswerMode = "fallback"
	ModeNotFound      AnswerMode = "not_found"
	ModeEmptyQuestion AnswerMode = "empty_question"
	ModeUnavailable   AnswerMode = "unavailable"
	ModeSearchError   AnswerMode = "search_error"
)

// FAQAnswer is the response of the FAQ chatbot. Immutable after construction.
type FAQAnswer struct {
	Answer            string     `json:"answer"`
	AlternativeAnswer string     `json:"alternativeAnswer,omitempty"`
	Confidence        float64    `json:"confidence"`
	Found             bool       `json:"found"`
	Mode              AnswerMode `json:"-"`
}

// SocialSource is a retrieved document surfaced to the user as citable
// reference material, together with its combined relevance score.
type SocialSource struct {
	SocialDocument
	Score float64 `json:"score"`
}

// SocialAnswer is the response of the data chatbot.
type SocialAnswer struct {
	Answer     string         `json:"answer"`
	Sources    []SocialSource `json:"sources"`
	Confidence float64        `json:"confidence"`
	Found      bool           `json:"found"`
	Mode       AnswerMode     `json:"-"`
}
