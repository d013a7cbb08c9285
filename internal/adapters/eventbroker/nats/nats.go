package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"simplefilehost/internal/config"
	"simplefilehost/internal/core/domain"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const publishTimeout = 5 * time.Second

// Publisher is a struct to push session events to nats
type Publisher struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
}

// NewNATSPublisher connects to nats. When a stream is configured it is
// created or updated to capture the subject and events go through JetStream.
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p := &Publisher{
		logger: logger,
		conn:   conn,
		config: cfg,
	}
	if cfg.Stream == "" {
		return p, nil
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
		MaxAge:   24 * time.Hour,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream %s: %w", cfg.Stream, err)
	}
	p.js = js
	return p, nil
}

// Publish sends ev as JSON. Failures are logged, a broker outage never
// interrupts a transfer.
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to encode event", "type", ev.Type, "error", err)
		return
	}

	if p.js != nil {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := p.js.Publish(pctx, p.config.Subject, data); err != nil {
			p.logger.Warn("failed to publish event", "type", ev.Type, "error", err)
		}
		return
	}

	if err := p.conn.Publish(p.config.Subject, data); err != nil {
		p.logger.Warn("failed to publish event", "type", ev.Type, "error", err)
	}
}

// Close graceful shutdown, pending messages are flushed
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
