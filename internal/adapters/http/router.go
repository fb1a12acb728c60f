package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
	"github.com/bpe-platform/chatbot-service/internal/core/ports"
	"github.com/bpe-platform/chatbot-service/internal/observability/metrics"
)

const serviceName = "chatbot-api"

// TrafficConfig bounds inbound load before it reaches the chatbot core.
type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	AcquireTimeout time.Duration
}

type Router struct {
	faq     ports.FAQAnswerer
	social  ports.SocialAnswerer
	manager ports.FAQManager
	metrics *metrics.HTTPServerMetrics
	traffic TrafficConfig
	log     *slog.Logger
}

func NewRouter(
	faq ports.FAQAnswerer,
	social ports.SocialAnswerer,
	manager ports.FAQManager,
	m *metrics.HTTPServerMetrics,
	traffic TrafficConfig,
	log *slog.Logger,
) *Router {
	return &Router{
		faq:     faq,
		social:  social,
		manager: manager,
		metrics: m,
		traffic: traffic,
		log:     log,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/chatbot/ask", rt.askFAQ)
	mux.HandleFunc("/api/data-chatbot/ask", rt.askSocial)
	mux.HandleFunc("/api/faqs", rt.faqs)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.traffic.MaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, rt.traffic.AcquireTimeout)
	}
	if rt.traffic.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.log, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
}

// decodeQuestion pulls the question out of an ask request. A malformed body
// and a blank question get the same rejection; clients treat both as "type
// something first".
func decodeQuestion(r *http.Request) (string, bool) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", false
	}
	question := strings.TrimSpace(req.Question)
	return question, question != ""
}

func (rt *Router) askFAQ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	question, ok := decodeQuestion(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "질문을 입력해주세요.")
		return
	}

	start := time.Now()
	answer := rt.faq.Answer(r.Context(), question)
	rt.observe(r.Context(), "faq", string(answer.Mode), answer.Confidence, 0, time.Since(start))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"answer":            answer.Answer,
		"alternativeAnswer": answer.AlternativeAnswer,
		"confidence":        answer.Confidence,
		"found":             answer.Found,
	})
}

func (rt *Router) askSocial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	question, ok := decodeQuestion(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "질문을 입력해주세요.")
		return
	}

	start := time.Now()
	answer := rt.social.Answer(r.Context(), question)
	rt.observe(r.Context(), "social", string(answer.Mode), answer.Confidence, len(answer.Sources), time.Since(start))

	sources := answer.Sources
	if sources == nil {
		sources = []domain.SocialSource{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"answer":     answer.Answer,
		"confidence": answer.Confidence,
		"found":      answer.Found,
		"sources":    sources,
	})
}

func (rt *Router) faqs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.listFAQs(w, r)
	case http.MethodPost:
		rt.saveFAQ(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) listFAQs(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.manager.ListFAQs(r.Context())
	if err != nil {
		rt.log.ErrorContext(r.Context(), "list faqs failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "FAQ 목록을 불러올 수 없습니다.")
		return
	}
	if entries == nil {
		entries = []domain.FAQEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "faqs": entries})
}

func (rt *Router) saveFAQ(w http.ResponseWriter, r *http.Request) {
	var entry domain.FAQEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := rt.manager.SaveFAQ(r.Context(), &entry); err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "질문과 답변을 모두 입력해주세요.")
			return
		}
		rt.log.ErrorContext(r.Context(), "save faq failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "FAQ 저장에 실패했습니다.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "faq": entry})
}

func (rt *Router) observe(ctx context.Context, endpoint, mode string, confidence float64, sources int, took time.Duration) {
	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, endpoint, mode, confidence, sources, took)
	}
	rt.log.InfoContext(ctx, "chatbot answer",
		slog.String("endpoint", endpoint),
		slog.String("mode", mode),
		slog.Float64("confidence", confidence),
		slog.Int("sources", sources),
		slog.Duration("took", took))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
