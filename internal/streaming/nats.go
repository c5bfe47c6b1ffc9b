package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"honeypot-lab/internal/config"
	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// NATSPublisher handles publishing intelligence events to NATS JetStream
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
	logger *logger.Logger

	mu        sync.RWMutex
	connected bool
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	log = log.WithComponent("nats")

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "HONEYPOT_INTEL"
	}

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Honeypot extracted-intelligence events",
		Subjects:    []string{"intel.>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     100000,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}
	stream, err := js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info().Str("stream", stream.CachedInfo().Config.Name).Msg("NATS stream ready")

	return &NATSPublisher{
		conn:      conn,
		js:        js,
		config:    cfg,
		logger:    log,
		connected: true,
	}, nil
}

// Close closes the NATS connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		p.conn.Close()
		p.connected = false
	}
}

// IsConnected returns whether NATS is connected
func (p *NATSPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn.IsConnected()
}

// PublishIntel publishes newly captured entities for a session. Failures are
// logged and swallowed; streaming is best-effort and never fails a turn.
func (p *NATSPublisher) PublishIntel(ctx context.Context, sessionID string, risk models.RiskLevel, fresh models.EntityRecord) {
	if !p.IsConnected() {
		p.logger.Debug().Msg("NATS not connected, dropping intel event")
		return
	}

	event := NewIntelEvent(sessionID, risk, fresh)

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to marshal intel event")
		return
	}

	subject := p.subject(event)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish intel event")
		return
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("session_id", sessionID).
		Int("categories", len(fresh)).
		Msg("published intel event")
}

// subject builds the hierarchy intel.<event_type>.<risk>
func (p *NATSPublisher) subject(event *IntelEvent) string {
	risk := string(event.RiskLevel)
	if risk == "" {
		risk = "unknown"
	}
	return fmt.Sprintf("intel.%s.%s", event.Type, risk)
}
