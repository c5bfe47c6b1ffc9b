package ai

import (
	"strings"

	"honeypot-lab/internal/domain/models"
)

// fallbackReplies maps topical keywords in the inbound message to canned
// persona stalls. Checked in order; first hit wins.
var fallbackReplies = []struct {
	keywords []string
	reply    string
}{
	{[]string{"hello", "hi"}, "Yes, hello? Who is this speaking?"},
	{[]string{"bank", "account"}, "I cannot open my bank app right now, server down."},
	{[]string{"pay", "transfer"}, "My UPI is showing 'Payment Failed'. Can I do cash?"},
	{[]string{"otp"}, "Wait, I am looking for the SMS... I don't see it."},
}

const fallbackStall = "I am having trouble hearing you clearly... network issue."

// FallbackResult synthesizes a deterministic reply from the inbound message
// when every backend has failed. It always reports a non-zero confidence, a
// conservative risk level, a delay action, and an empty extraction set; the
// fallback never fabricates entities.
func FallbackResult(inbound string) *Result {
	lower := strings.ToLower(inbound)

	reply := fallbackStall
	for _, fr := range fallbackReplies {
		matched := false
		for _, kw := range fr.keywords {
			if strings.Contains(lower, kw) {
				matched = true
				break
			}
		}
		if matched {
			reply = fr.reply
			break
		}
	}

	return &Result{
		Intent:            models.IntentFallback,
		RiskLevel:         models.RiskHigh,
		ConfidenceScore:   0.5,
		Response:          reply,
		RecommendedAction: models.ActionDelay,
		LogRequired:       true,
		ExtractedInfo:     map[string]any{},
		Fallback:          true,
	}
}
