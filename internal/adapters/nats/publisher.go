package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

const (
	StreamAnalyses = "SITING_ANALYSES"

	SubjectPrefix    = "siting.analysis"
	ChannelCompleted = "completed"
	ChannelFailed    = "failed"
)

// Subject returns the subject for events on channel. An empty plant
// matches every plant type.
func Subject(channel, plant string) string {
	if plant == "" {
		return SubjectPrefix + "." + channel + ".*"
	}
	return SubjectPrefix + "." + channel + "." + plant
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamAnalyses,
		Subjects:  []string{SubjectPrefix + ".>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(cfg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishAnalysisCompleted(ctx context.Context, a *domain.Analysis) error {
	return p.publish(ctx, ChannelCompleted, a)
}

func (p *Publisher) PublishAnalysisFailed(ctx context.Context, a *domain.Analysis) error {
	return p.publish(ctx, ChannelFailed, a)
}

func (p *Publisher) publish(ctx context.Context, channel string, a *domain.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	plant := string(a.Request.PlantType)
	if plant == "" {
		plant = "unknown"
	}
	// Msg ID lets JetStream drop duplicates from activity retries.
	_, err = p.js.Publish(Subject(channel, plant), data,
		nats.Context(ctx),
		nats.MsgId(a.ID+"."+channel),
	)
	return err
}

// Conn exposes the underlying connection so the WebSocket relay can share it.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("sitescout"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
