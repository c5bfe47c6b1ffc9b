package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// ErrNoCredentials is returned when no generative backend has an API key.
// This is the only error the client ever surfaces; every other failure mode
// degrades to the deterministic fallback result.
var ErrNoCredentials = errors.New("no generative provider credentials configured")

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Protocol roles for the two-party transcript
const (
	RoleCounterpart = "user"
	RoleAgent       = "model"
)

// Message is one entry of a normalized two-role transcript
type Message struct {
	Role string
	Text string
}

// Config holds generation client configuration
type Config struct {
	APIKey         string
	Models         []string // fastest/cheapest first
	AttemptTimeout time.Duration
	Temperature    float64
	BaseURL        string
}

// Client drives an ordered chain of generative model backends and guarantees
// a well-formed result: either the first schema-valid structured reply, or a
// deterministic fallback when every backend fails.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     *logger.Logger
}

// NewClient creates a new generation client
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.AttemptTimeout == 0 {
		// Short enough that trying every backend stays under ~30s end to end.
		cfg.AttemptTimeout = 15 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 1.0
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gemini-2.0-flash", "gemini-1.5-flash"}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.AttemptTimeout},
		config:     cfg,
		logger:     log.WithComponent("generation-client"),
	}
}

// Result is the structured outcome of one generation attempt. Exactly one of
// structured or fallback is produced; callers never see provider detail.
// ExtractedInfo carries the backend's self-reported extraction untouched;
// consolidation sanitizes it.
type Result struct {
	Intent            string
	RiskLevel         models.RiskLevel
	ConfidenceScore   float64
	Response          string
	RecommendedAction models.Action
	LogRequired       bool
	ExtractedInfo     map[string]any
	Fallback          bool
}

// structuredReply is the strict wire schema expected inside the backend's
// free-text output. Response is the one required field.
type structuredReply struct {
	Intent            string         `json:"intent"`
	RiskLevel         string         `json:"risk_level"`
	ConfidenceScore   float64        `json:"confidence_score"`
	Response          string         `json:"response"`
	RecommendedAction string         `json:"recommended_action"`
	LogRequired       bool           `json:"log_required"`
	ExtractedInfo     map[string]any `json:"extracted_info"`
}

// Generate runs the backend chain over a normalized transcript. The inbound
// message is only used to pick a fallback reply when every backend fails.
func (c *Client) Generate(ctx context.Context, transcript []Message, persona string, inbound string) (*Result, error) {
	if c.config.APIKey == "" {
		return nil, ErrNoCredentials
	}

	payload, err := json.Marshal(c.buildRequest(transcript, persona))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generation request: %w", err)
	}

	for _, model := range c.config.Models {
		reply, err := c.tryModel(ctx, model, payload)
		if err != nil {
			c.logger.Warn().Err(err).Str("model", model).Msg("backend attempt failed, trying next")
			continue
		}
		c.logger.Debug().Str("model", model).Msg("backend produced structured reply")
		return &Result{
			Intent:            reply.Intent,
			RiskLevel:         models.RiskLevel(reply.RiskLevel),
			ConfidenceScore:   reply.ConfidenceScore,
			Response:          reply.Response,
			RecommendedAction: models.Action(reply.RecommendedAction),
			LogRequired:       reply.LogRequired,
			ExtractedInfo:     reply.ExtractedInfo,
		}, nil
	}

	c.logger.Warn().Msg("all backends exhausted, using deterministic fallback")
	return FallbackResult(inbound), nil
}

// geminiRequest mirrors the generateContent wire format
type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction geminiContent   `json:"system_instruction"`
	GenerationConfig  geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

func (c *Client) buildRequest(transcript []Message, persona string) geminiRequest {
	contents := make([]geminiContent, len(transcript))
	for i, msg := range transcript {
		contents[i] = geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Text}},
		}
	}
	return geminiRequest{
		Contents:          contents,
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: persona}}},
		GenerationConfig: geminiGenConfig{
			Temperature:      c.config.Temperature,
			ResponseMimeType: "application/json",
		},
	}
}

// tryModel issues one bounded-timeout request against a single backend and
// validates the reply schema. Any failure advances the chain.
func (c *Client) tryModel(ctx context.Context, model string, payload []byte) (*structuredReply, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.config.AttemptTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.config.BaseURL, model, c.config.APIKey)
	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	var genResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("unparseable backend response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("backend returned no candidates")
	}

	var text string
	for _, part := range genResp.Candidates[0].Content.Parts {
		text += part.Text
	}

	// The backend is not trusted to return pure JSON; carve out the first
	// balanced object from whatever wrapping it produced.
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in backend output")
	}

	var reply structuredReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil, fmt.Errorf("schema violation: %w", err)
	}
	if reply.Response == "" {
		return nil, fmt.Errorf("schema violation: missing reply text")
	}

	return &reply, nil
}

// extractJSONObject returns the first balanced brace-delimited object in s,
// or "" when none exists. String literals and escapes are respected so braces
// inside reply text don't unbalance the scan.
func extractJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if start == -1 {
			if ch == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
