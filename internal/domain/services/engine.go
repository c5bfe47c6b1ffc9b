package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services/ai"
	"honeypot-lab/pkg/logger"
)

// TurnStore is the storage collaborator contract. Turns are append-only and
// ordered by arrival within a session.
type TurnStore interface {
	Append(ctx context.Context, turn *models.Turn) error
	LastN(ctx context.Context, sessionID string, n int) ([]models.Turn, error)
	Full(ctx context.Context, sessionID string) ([]models.Turn, error)
	// ExtractedRecords returns every prior turn's stored extraction snapshot,
	// skipping turns whose stored blob is corrupt.
	ExtractedRecords(ctx context.Context, sessionID string) ([]models.EntityRecord, error)
	Clear(ctx context.Context, sessionID string) error
}

// Generator produces a structured reply from a normalized transcript.
type Generator interface {
	Generate(ctx context.Context, transcript []ai.Message, persona string, inbound string) (*ai.Result, error)
}

// EventPublisher receives newly captured intelligence for streaming. May be
// nil when streaming is disabled.
type EventPublisher interface {
	PublishIntel(ctx context.Context, sessionID string, risk models.RiskLevel, fresh models.EntityRecord)
}

// ReportCache caches computed session reports. May be nil.
type ReportCache interface {
	GetReport(ctx context.Context, sessionID string) (*models.SessionReport, bool)
	SetReport(ctx context.Context, sessionID string, report *models.SessionReport)
	Invalidate(ctx context.Context, sessionID string)
}

// EngineConfig holds pipeline tuning knobs
type EngineConfig struct {
	HistoryLimit int // turns fed to the normalizer, most recent first
}

// Engine runs the per-turn intelligence pipeline: pattern extraction,
// history normalization, generation, consolidation, and turn persistence.
// Messages for the same session serialize on a per-session mutex so the
// aggregate read and turn write never race.
type Engine struct {
	config    EngineConfig
	store     TurnStore
	extractor *PatternExtractor
	generator Generator
	reporter  *ReportGenerator
	publisher EventPublisher
	cache     ReportCache
	logger    *logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a new pipeline engine
func NewEngine(cfg EngineConfig, store TurnStore, extractor *PatternExtractor, gen Generator, reporter *ReportGenerator, publisher EventPublisher, cache ReportCache, log *logger.Logger) *Engine {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 30
	}
	return &Engine{
		config:    cfg,
		store:     store,
		extractor: extractor,
		generator: gen,
		reporter:  reporter,
		publisher: publisher,
		cache:     cache,
		logger:    log.WithComponent("engine"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex for a session. Locks live for the process
// lifetime; session cardinality is bounded by engagement volume.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[sessionID] = lock
	}
	return lock
}

// ProcessMessage runs one inbound counterpart message through the pipeline
// and returns the caller-facing result. The result's extraction already folds
// in all prior history for the session.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) (*models.TurnResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	log := e.logger.WithSessionID(sessionID)

	// The inbound turn is stored first so normalization sees it and the
	// transcript ends on the counterpart's entry.
	userTurn := &models.Turn{
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   message,
		CreatedAt: nowStamp(),
	}
	if err := e.store.Append(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("failed to append user turn: %w", err)
	}

	regex := e.extractor.Extract(message)

	history, err := e.store.LastN(ctx, sessionID, e.config.HistoryLimit)
	if err != nil {
		// Degrade to a single-turn transcript rather than failing the turn.
		log.Warn().Err(err).Msg("history read failed, continuing with inbound message only")
		history = []models.Turn{*userTurn}
	}
	transcript := NormalizeHistory(history)

	genResult, err := e.generator.Generate(ctx, transcript, ai.PersonaDirective, message)
	if err != nil {
		if !errors.Is(err, ai.ErrNoCredentials) {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		// The one fatal condition: no provider is reachable at all. Return an
		// explicit error-shaped result instead of pretending to engage.
		log.Error().Msg("no generative credentials configured")
		result := errorResult("API Key Missing")
		e.storeAgentTurn(ctx, sessionID, result, log)
		return result, nil
	}

	records, err := e.store.ExtractedRecords(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("aggregate read failed, consolidating without history")
		records = nil
	}
	aggregate := AggregateRecords(records)

	merged := Consolidate(regex, genResult.ExtractedInfo, aggregate)

	result := &models.TurnResult{
		Intent:            intentOrUnknown(genResult.Intent),
		RiskLevel:         genResult.RiskLevel,
		ConfidenceScore:   genResult.ConfidenceScore,
		Response:          genResult.Response,
		RecommendedAction: genResult.RecommendedAction,
		LogRequired:       genResult.LogRequired,
		ExtractedInfo:     merged,
	}

	e.storeAgentTurn(ctx, sessionID, result, log)

	if e.publisher != nil {
		if fresh := freshEntities(merged, aggregate); !fresh.IsEmpty() {
			e.publisher.PublishIntel(ctx, sessionID, result.RiskLevel, fresh)
		}
	}
	if e.cache != nil {
		e.cache.Invalidate(ctx, sessionID)
	}

	log.Info().
		Str("intent", result.Intent).
		Str("risk_level", string(result.RiskLevel)).
		Bool("fallback", genResult.Fallback).
		Msg("turn processed")

	return result, nil
}

// Report computes (or serves from cache) the engagement report for a session.
func (e *Engine) Report(ctx context.Context, sessionID string) (*models.SessionReport, error) {
	if e.cache != nil {
		if report, ok := e.cache.GetReport(ctx, sessionID); ok {
			return report, nil
		}
	}

	history, err := e.store.Full(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	records, err := e.store.ExtractedRecords(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction records: %w", err)
	}

	report := e.reporter.Generate(history, AggregateRecords(records))

	if e.cache != nil {
		e.cache.SetReport(ctx, sessionID, report)
	}
	return report, nil
}

// History returns the full stored turn sequence for a session.
func (e *Engine) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	return e.store.Full(ctx, sessionID)
}

// Reset clears a session's stored turns.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if err := e.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if e.cache != nil {
		e.cache.Invalidate(ctx, sessionID)
	}
	return nil
}

func (e *Engine) storeAgentTurn(ctx context.Context, sessionID string, result *models.TurnResult, log *logger.Logger) {
	meta, err := json.Marshal(result)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal turn result")
		meta = nil
	}
	agentTurn := &models.Turn{
		SessionID: sessionID,
		Role:      models.RoleAgent,
		Content:   result.Response,
		Meta:      meta,
		CreatedAt: nowStamp(),
	}
	if err := e.store.Append(ctx, agentTurn); err != nil {
		// The caller still gets its result; the next aggregate just won't
		// include this turn.
		log.Error().Err(err).Msg("failed to append agent turn")
	}
}

// freshEntities returns the values present in merged but not in the prior
// aggregate, category by category.
func freshEntities(merged, aggregate models.EntityRecord) models.EntityRecord {
	fresh := make(models.EntityRecord)
	for _, cat := range models.Categories {
		known := make(map[string]bool)
		for _, v := range aggregate.Get(cat) {
			known[v] = true
		}
		for _, v := range merged.Get(cat) {
			if !known[v] {
				fresh.Add(cat, v)
			}
		}
	}
	return fresh
}

func errorResult(msg string) *models.TurnResult {
	return &models.TurnResult{
		Intent:            models.IntentError,
		RiskLevel:         models.RiskLow,
		ConfidenceScore:   0.0,
		Response:          msg,
		RecommendedAction: models.ActionIgnore,
		LogRequired:       true,
		ExtractedInfo:     models.EntityRecord{},
	}
}

func intentOrUnknown(intent string) string {
	if intent == "" {
		return models.IntentUnknown
	}
	return intent
}

// nowStamp formats the current time the way the session log stores it.
func nowStamp() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}
