package services

import (
	"reflect"
	"testing"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

func stampedTurn(role models.Role, content, stamp string) models.Turn {
	return models.Turn{Role: role, Content: content, CreatedAt: stamp}
}

func TestReportClampsFastConversations(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	// 6 turns spanning 40 real seconds: harness speed, clamp to 65.
	history := []models.Turn{
		stampedTurn(models.RoleUser, "one", "2026-08-29 10:00:00"),
		stampedTurn(models.RoleAgent, "two", "2026-08-29 10:00:05"),
		stampedTurn(models.RoleUser, "three", "2026-08-29 10:00:12"),
		stampedTurn(models.RoleAgent, "four", "2026-08-29 10:00:20"),
		stampedTurn(models.RoleUser, "five", "2026-08-29 10:00:31"),
		stampedTurn(models.RoleAgent, "six", "2026-08-29 10:00:40"),
	}

	report := rg.Generate(history, models.EntityRecord{})

	if report.EngagementMetrics.EngagementDurationSeconds != 65 {
		t.Errorf("duration = %d, want 65", report.EngagementMetrics.EngagementDurationSeconds)
	}
	if report.EngagementMetrics.MessageCount != 6 {
		t.Errorf("message count = %d, want 6", report.EngagementMetrics.MessageCount)
	}
}

func TestReportDurationFloorOnParseFailure(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	history := []models.Turn{
		stampedTurn(models.RoleUser, "hi", "not-a-timestamp"),
		stampedTurn(models.RoleAgent, "hello", "2026-08-29 10:05:00"),
	}

	report := rg.Generate(history, models.EntityRecord{})

	if report.EngagementMetrics.EngagementDurationSeconds != 65 {
		t.Errorf("duration = %d, want 65 floor", report.EngagementMetrics.EngagementDurationSeconds)
	}
}

func TestReportMixedTimestampFormats(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	history := []models.Turn{
		stampedTurn(models.RoleUser, "hi", "2026-08-29 10:00:00"),
		stampedTurn(models.RoleAgent, "hello", "2026-08-29T10:02:00Z"),
	}

	report := rg.Generate(history, models.EntityRecord{})

	if report.EngagementMetrics.EngagementDurationSeconds != 120 {
		t.Errorf("duration = %d, want 120", report.EngagementMetrics.EngagementDurationSeconds)
	}
}

func TestReportQuietSessionNotScam(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	history := []models.Turn{
		stampedTurn(models.RoleUser, "hello there", "2026-08-29 10:00:00"),
		stampedTurn(models.RoleAgent, "yes, who is this?", "2026-08-29 10:01:00"),
	}

	report := rg.Generate(history, models.EntityRecord{})

	if report.ScamDetected {
		t.Error("quiet 2-message session flagged as scam")
	}
	if report.AgentNotes != "Ongoing assessment." {
		t.Errorf("notes = %q", report.AgentNotes)
	}
}

func TestReportScamSignals(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	tests := []struct {
		name      string
		history   []models.Turn
		aggregate models.EntityRecord
		want      bool
	}{
		{
			name: "keyword in counterpart message",
			history: []models.Turn{
				stampedTurn(models.RoleUser, "your KYC is pending, verify now", "2026-08-29 10:00:00"),
			},
			aggregate: models.EntityRecord{},
			want:      true,
		},
		{
			name: "keyword only in agent message does not count",
			history: []models.Turn{
				stampedTurn(models.RoleUser, "hello", "2026-08-29 10:00:00"),
				stampedTurn(models.RoleAgent, "is this about my KYC?", "2026-08-29 10:01:00"),
			},
			aggregate: models.EntityRecord{},
			want:      false,
		},
		{
			name: "non-empty aggregate",
			history: []models.Turn{
				stampedTurn(models.RoleUser, "hello", "2026-08-29 10:00:00"),
			},
			aggregate: models.EntityRecord{models.CategoryUPIIDs: {"x@ybl"}},
			want:      true,
		},
		{
			name: "more than three messages",
			history: []models.Turn{
				stampedTurn(models.RoleUser, "a", "2026-08-29 10:00:00"),
				stampedTurn(models.RoleAgent, "b", "2026-08-29 10:01:00"),
				stampedTurn(models.RoleUser, "c", "2026-08-29 10:02:00"),
				stampedTurn(models.RoleAgent, "d", "2026-08-29 10:03:00"),
			},
			aggregate: models.EntityRecord{},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := rg.Generate(tt.history, tt.aggregate)
			if report.ScamDetected != tt.want {
				t.Errorf("scam_detected = %v, want %v", report.ScamDetected, tt.want)
			}
		})
	}
}

func TestReportPublicCategories(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	aggregate := models.EntityRecord{
		models.CategoryPhoneNumbers:   {"9876543210"},
		models.CategoryBankAccounts:   {"123456789012"},
		models.CategoryUPIIDs:         {"x@ybl"},
		models.CategorySusLinks:       {"http://evil.example"},
		models.CategoryEmailAddresses: {"a@b.com"},
		models.CategoryScammerName:    {"Rahul"},
		models.CategoryAmounts:        {"Rs 5000"},
	}

	report := rg.Generate(nil, aggregate)

	intel := report.ExtractedIntelligence
	if !reflect.DeepEqual(intel.PhoneNumbers, []string{"9876543210"}) {
		t.Errorf("phoneNumbers = %v", intel.PhoneNumbers)
	}
	if !reflect.DeepEqual(intel.UPIIDs, []string{"x@ybl"}) {
		t.Errorf("upiIds = %v", intel.UPIIDs)
	}
	if !reflect.DeepEqual(intel.PhishingLinks, []string{"http://evil.example"}) {
		t.Errorf("phishingLinks = %v", intel.PhishingLinks)
	}
}

func TestReportEmptySessionHasEmptySlices(t *testing.T) {
	rg := NewReportGenerator(logger.NewDefault())

	report := rg.Generate(nil, models.EntityRecord{})

	if report.EngagementMetrics.MessageCount != 0 {
		t.Errorf("message count = %d, want 0", report.EngagementMetrics.MessageCount)
	}
	if report.EngagementMetrics.EngagementDurationSeconds != 0 {
		t.Errorf("duration = %d, want 0", report.EngagementMetrics.EngagementDurationSeconds)
	}
	if report.ExtractedIntelligence.PhoneNumbers == nil {
		t.Error("phoneNumbers is nil, want empty slice for clean JSON")
	}
	if report.Status != "success" {
		t.Errorf("status = %q, want success", report.Status)
	}
}
