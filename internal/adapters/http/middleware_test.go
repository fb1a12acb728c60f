package httpadapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bpe-platform/chatbot-service/internal/core/domain"
)

func TestAccessLogUsesInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	router := NewRouter(&faqAnswererFake{answer: domain.FAQAnswer{Found: true}},
		&socialAnswererFake{}, &faqManagerFake{}, nil, TrafficConfig{}, log)
	handler := router.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/chatbot/ask", strings.NewReader(`{"question":"질문"}`))
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var access map[string]any
	for _, line := range lines {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode log record: %v", err)
		}
		if record["msg"] == "http_request" {
			access = record
		}
	}
	if access == nil {
		t.Fatalf("no access log record emitted: %s", buf.String())
	}
	if access["method"] != "POST" || access["path"] != "/api/chatbot/ask" {
		t.Fatalf("unexpected access record: %v", access)
	}
	if access["status"] != float64(http.StatusOK) {
		t.Fatalf("unexpected status in access record: %v", access["status"])
	}
	if access["request_id"] != "req-42" {
		t.Fatalf("supplied request id not logged: %v", access["request_id"])
	}
}

func TestAccessLogWarnsOnClientError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := NewRouter(&faqAnswererFake{}, &socialAnswererFake{}, &faqManagerFake{},
		nil, TrafficConfig{}, log).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/chatbot/ask", strings.NewReader(`{"question":""}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if !strings.Contains(buf.String(), `"level":"WARN"`) {
		t.Fatalf("400 response must log at warn level: %s", buf.String())
	}
}
