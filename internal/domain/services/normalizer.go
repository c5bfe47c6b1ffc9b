package services

import (
	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services/ai"
)

// continuationPlaceholder is appended as a synthetic counterpart entry when
// the transcript would otherwise end on the agent's turn. The generative
// protocol expects the counterpart to speak last.
const continuationPlaceholder = "Continue"

// NormalizeHistory transforms stored turns (oldest first) into a strictly
// alternating two-role transcript. Consecutive same-role turns are merged
// with a line break rather than dropped, so no content is lost.
func NormalizeHistory(turns []models.Turn) []ai.Message {
	transcript := make([]ai.Message, 0, len(turns))

	for _, turn := range turns {
		role := ai.RoleCounterpart
		if turn.Role != models.RoleUser {
			role = ai.RoleAgent
		}

		if n := len(transcript); n > 0 && transcript[n-1].Role == role {
			transcript[n-1].Text += "\n" + turn.Content
			continue
		}
		transcript = append(transcript, ai.Message{Role: role, Text: turn.Content})
	}

	if n := len(transcript); n > 0 && transcript[n-1].Role == ai.RoleAgent {
		transcript = append(transcript, ai.Message{Role: ai.RoleCounterpart, Text: continuationPlaceholder})
	}

	return transcript
}
