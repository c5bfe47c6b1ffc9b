package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// stubPipeline implements Pipeline with scripted responses.
type stubPipeline struct {
	result  *models.TurnResult
	report  *models.SessionReport
	history []models.Turn
	err     error

	lastSessionID string
	lastMessage   string
	resetCalled   bool
}

func (s *stubPipeline) ProcessMessage(_ context.Context, sessionID, message string) (*models.TurnResult, error) {
	s.lastSessionID = sessionID
	s.lastMessage = message
	return s.result, s.err
}

func (s *stubPipeline) Report(_ context.Context, sessionID string) (*models.SessionReport, error) {
	s.lastSessionID = sessionID
	return s.report, s.err
}

func (s *stubPipeline) History(_ context.Context, sessionID string) ([]models.Turn, error) {
	s.lastSessionID = sessionID
	return s.history, s.err
}

func (s *stubPipeline) Reset(_ context.Context, sessionID string) error {
	s.lastSessionID = sessionID
	s.resetCalled = true
	return s.err
}

func engageResult() *models.TurnResult {
	return &models.TurnResult{
		Intent:            models.IntentScamAttempt,
		RiskLevel:         models.RiskHigh,
		ConfidenceScore:   0.9,
		Response:          "Which bank did you say?",
		RecommendedAction: models.ActionEngage,
		LogRequired:       true,
		ExtractedInfo:     models.EntityRecord{models.CategoryUPIIDs: {"x@ybl"}},
	}
}

func TestChatProcess(t *testing.T) {
	pipeline := &stubPipeline{result: engageResult()}
	handler := NewChatHandler(pipeline, logger.NewDefault())

	body := bytes.NewBufferString(`{"session_id":"s1","message":"your account is blocked"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	rec := httptest.NewRecorder()

	handler.Process(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if pipeline.lastSessionID != "s1" || pipeline.lastMessage != "your account is blocked" {
		t.Errorf("pipeline called with %q / %q", pipeline.lastSessionID, pipeline.lastMessage)
	}

	var result models.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
	if result.Response != "Which bank did you say?" {
		t.Errorf("response = %q", result.Response)
	}
	if result.RiskLevel != models.RiskHigh {
		t.Errorf("risk_level = %s", result.RiskLevel)
	}
}

func TestChatProcessValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing session", `{"message":"hi"}`},
		{"missing message", `{"session_id":"s1"}`},
		{"blank message", `{"session_id":"s1","message":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewChatHandler(&stubPipeline{}, logger.NewDefault())
			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			handler.Process(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestChatProcessEngineFailureStaysInCharacter(t *testing.T) {
	pipeline := &stubPipeline{err: errors.New("db down")}
	handler := NewChatHandler(pipeline, logger.NewDefault())

	body := bytes.NewBufferString(`{"session_id":"s1","message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	rec := httptest.NewRecorder()

	handler.Process(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even on failure", rec.Code)
	}
	var result models.TurnResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
	if result.Intent != models.IntentError || result.RiskLevel != models.RiskCritical {
		t.Errorf("intent/risk = %s/%s, want ERROR/CRITICAL", result.Intent, result.RiskLevel)
	}
	if result.Response == "" {
		t.Error("degraded result must still carry a reply")
	}
}

func TestHoneypotProcess(t *testing.T) {
	pipeline := &stubPipeline{result: engageResult()}
	handler := NewHoneypotHandler(pipeline, logger.NewDefault())

	body := bytes.NewBufferString(`{
		"sessionId": "abc-123",
		"message": {"sender": "scammer", "text": "send the otp", "timestamp": "2026-08-29T10:00:00Z"},
		"conversationHistory": [],
		"metadata": {"channel": "sms"}
	}`)
	req := httptest.NewRequest(http.MethodPost, "/honeypot", body)
	rec := httptest.NewRecorder()

	handler.Process(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if pipeline.lastSessionID != "abc-123" || pipeline.lastMessage != "send the otp" {
		t.Errorf("pipeline called with %q / %q", pipeline.lastSessionID, pipeline.lastMessage)
	}

	var resp HoneypotResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Reply != "Which bank did you say?" {
		t.Errorf("reply = %q", resp.Reply)
	}
	if resp.RiskLevel != models.RiskHigh {
		t.Errorf("riskLevel = %s", resp.RiskLevel)
	}
}

func TestHoneypotGeneratesSessionID(t *testing.T) {
	pipeline := &stubPipeline{result: engageResult()}
	handler := NewHoneypotHandler(pipeline, logger.NewDefault())

	body := bytes.NewBufferString(`{"message": {"text": "hello"}}`)
	req := httptest.NewRequest(http.MethodPost, "/honeypot", body)
	rec := httptest.NewRecorder()

	handler.Process(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if pipeline.lastSessionID == "" {
		t.Error("expected a generated session id")
	}
}

func TestHoneypotRejectsEmptyText(t *testing.T) {
	handler := NewHoneypotHandler(&stubPipeline{}, logger.NewDefault())

	body := bytes.NewBufferString(`{"sessionId":"s1","message":{"text":""}}`)
	req := httptest.NewRequest(http.MethodPost, "/honeypot", body)
	rec := httptest.NewRecorder()

	handler.Process(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func routeRequest(t *testing.T, handler http.HandlerFunc, method, target, paramKey, paramVal string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(paramKey, paramVal)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestReportResults(t *testing.T) {
	pipeline := &stubPipeline{report: &models.SessionReport{
		Status:       "success",
		ScamDetected: true,
		ExtractedIntelligence: models.ExtractedIntelligence{
			UPIIDs:         []string{"x@ybl"},
			PhoneNumbers:   []string{},
			BankAccounts:   []string{},
			PhishingLinks:  []string{},
			EmailAddresses: []string{},
		},
		EngagementMetrics: models.EngagementMetrics{EngagementDurationSeconds: 65, MessageCount: 6},
		AgentNotes:        "Evaluated interaction. Scam detected based on intelligence extraction and behavioral markers.",
	}}
	handler := NewReportHandler(pipeline, logger.NewDefault())

	rec := routeRequest(t, handler.Results, http.MethodGet, "/api/results/s1", "sessionID", "s1")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("response does not decode: %v", err)
	}
	if payload["scamDetected"] != true {
		t.Errorf("scamDetected = %v", payload["scamDetected"])
	}
	if _, ok := payload["extractedIntelligence"]; !ok {
		t.Error("extractedIntelligence key missing")
	}
	if _, ok := payload["engagementMetrics"]; !ok {
		t.Error("engagementMetrics key missing")
	}
}

func TestSessionHistoryAndReset(t *testing.T) {
	pipeline := &stubPipeline{history: []models.Turn{
		{SessionID: "s1", Role: models.RoleUser, Content: "hello", CreatedAt: "2026-08-29 10:00:00"},
	}}
	handler := NewSessionHandler(pipeline, logger.NewDefault())

	rec := routeRequest(t, handler.History, http.MethodGet, "/api/history/s1", "sessionID", "s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rec.Code)
	}
	var payload struct {
		SessionID string        `json:"session_id"`
		History   []models.Turn `json:"history"`
		Count     int           `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("history does not decode: %v", err)
	}
	if payload.Count != 1 || len(payload.History) != 1 {
		t.Errorf("count = %d, history = %d", payload.Count, len(payload.History))
	}

	rec = routeRequest(t, handler.Reset, http.MethodDelete, "/api/reset/s1", "sessionID", "s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d, want 200", rec.Code)
	}
	if !pipeline.resetCalled {
		t.Error("reset never reached the pipeline")
	}
}
