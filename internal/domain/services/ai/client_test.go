package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

func candidateBody(text string) string {
	payload := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIKey:         "test-key",
		Models:         []string{"model-a", "model-b"},
		AttemptTimeout: 2 * time.Second,
		BaseURL:        srv.URL,
	}, logger.NewDefault())
	return client, srv
}

func TestGenerateNoCredentials(t *testing.T) {
	client := NewClient(Config{}, logger.NewDefault())

	_, err := client.Generate(context.Background(), nil, "persona", "hello")
	if err != ErrNoCredentials {
		t.Fatalf("err = %v, want ErrNoCredentials", err)
	}
}

func TestGenerateStructuredReply(t *testing.T) {
	reply := `{"intent":"SCAM_ATTEMPT","risk_level":"HIGH","confidence_score":0.9,` +
		`"response":"Which bank did you say?","recommended_action":"ENGAGE",` +
		`"log_required":true,"extracted_info":{"upi_ids":["x@ybl"]}}`

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody(reply)))
	})

	result, err := client.Generate(context.Background(), []Message{{Role: RoleCounterpart, Text: "hi"}}, "persona", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Fallback {
		t.Error("structured reply marked as fallback")
	}
	if result.Intent != "SCAM_ATTEMPT" || result.RiskLevel != models.RiskHigh {
		t.Errorf("intent/risk = %s/%s", result.Intent, result.RiskLevel)
	}
	if result.Response != "Which bank did you say?" {
		t.Errorf("response = %q", result.Response)
	}
	if _, ok := result.ExtractedInfo["upi_ids"]; !ok {
		t.Error("extracted_info lost in transit")
	}
}

func TestGenerateJSONEmbeddedInProse(t *testing.T) {
	text := "Sure! Here is the result:\n```json\n" +
		`{"intent":"GREETING","response":"Hello, who is this?"}` +
		"\n```\nHope that helps."

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody(text)))
	})

	result, err := client.Generate(context.Background(), nil, "persona", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Response != "Hello, who is this?" {
		t.Errorf("response = %q", result.Response)
	}
}

func TestGenerateAdvancesOnSchemaViolation(t *testing.T) {
	var calls []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if strings.Contains(r.URL.Path, "model-a") {
			// Parseable JSON missing the required reply text
			w.Write([]byte(candidateBody(`{"intent":"GREETING"}`)))
			return
		}
		w.Write([]byte(candidateBody(`{"response":"Second model wins"}`)))
	})

	result, err := client.Generate(context.Background(), nil, "persona", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Response != "Second model wins" {
		t.Errorf("response = %q, want second backend's reply", result.Response)
	}
	if len(calls) != 2 {
		t.Errorf("backend calls = %v, want both models tried in order", calls)
	}
}

func TestGenerateFallbackOnTotalFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result, err := client.Generate(context.Background(), nil, "persona", "please send the otp now")
	if err != nil {
		t.Fatalf("total failure must not surface an error, got %v", err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback result")
	}
	if result.RecommendedAction != models.ActionDelay {
		t.Errorf("recommended_action = %s, want DELAY", result.RecommendedAction)
	}
	if len(result.ExtractedInfo) != 0 {
		t.Errorf("fallback fabricated entities: %v", result.ExtractedInfo)
	}
	if result.ConfidenceScore == 0 {
		t.Error("fallback confidence must be non-zero")
	}
	if result.Response != "Wait, I am looking for the SMS... I don't see it." {
		t.Errorf("response = %q, want the otp stall", result.Response)
	}
}

func TestFallbackReplySelection(t *testing.T) {
	tests := []struct {
		inbound string
		want    string
	}{
		{"Hello sir", "Yes, hello? Who is this speaking?"},
		{"your BANK account is blocked", "I cannot open my bank app right now, server down."},
		{"pay the fine now", "My UPI is showing 'Payment Failed'. Can I do cash?"},
		{"share the otp", "Wait, I am looking for the SMS... I don't see it."},
		{"asdfghjkl", "I am having trouble hearing you clearly... network issue."},
	}

	for _, tt := range tests {
		if got := FallbackResult(tt.inbound).Response; got != tt.want {
			t.Errorf("FallbackResult(%q).Response = %q, want %q", tt.inbound, got, tt.want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"prose wrapped", `noise {"a":1} trailing`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`},
		{"escaped quote inside string", `{"a":"say \"hi\" {now}"}`, `{"a":"say \"hi\" {now}"}`},
		{"unbalanced", `{"a":1`, ""},
		{"no object", "plain text", ""},
		{"first of several", `{"a":1} {"b":2}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONObject(tt.in); got != tt.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
