package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"simplefilehost/internal/config"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber is a struct to read session events back from nats
type Subscriber struct {
	logger *slog.Logger
	conn   *nats.Conn
	js     jetstream.JetStream
	config config.NATSConfig
	sub    *nats.Subscription
	iter   jetstream.MessagesContext
	wg     sync.WaitGroup
}

// NewNATSSubscriber creates a new subscriber
func NewNATSSubscriber(cfg config.NATSConfig, logger *slog.Logger) (*Subscriber, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name + "-watch"),
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

	s := &Subscriber{
		logger: logger,
		conn:   conn,
		config: cfg,
	}
	if cfg.Stream != "" {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to connect to JetStream: %w", err)
		}
		s.js = js
	}
	return s, nil
}

// Subscribe forwards every decoded event to sink until ctx is done or Close is called.
// With a stream configured a durable consumer is used and messages are acked once handled.
func (s *Subscriber) Subscribe(ctx context.Context, sink port.EventSink) error {
	if s.js == nil {
		sub, err := s.conn.Subscribe(s.config.Subject, func(msg *nats.Msg) {
			if ev, ok := s.decode(msg.Data); ok {
				sink.Publish(ctx, ev)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", s.config.Subject, err)
		}
		s.sub = sub
		return s.conn.Flush()
	}

	cons, err := s.js.CreateOrUpdateConsumer(ctx, s.config.Stream, jetstream.ConsumerConfig{
		Durable:       s.config.Durable,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: s.config.Subject,
		AckWait:       10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer on %s: %w", s.config.Stream, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return err
	}
	s.iter = iter

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			msg, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Debug("NATS subscription stopped", "error", err)
				}
				return
			}
			// undecodable events are acked too, redelivery would not fix them
			if ev, ok := s.decode(msg.Data()); ok {
				sink.Publish(ctx, ev)
			}
			if err := msg.Ack(); err != nil {
				s.logger.Error("failed to ack message", "error", err)
			}
		}
	}()

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()
	return nil
}

func (s *Subscriber) decode(data []byte) (domain.Event, bool) {
	var ev domain.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn("failed to decode event", "error", err)
		return domain.Event{}, false
	}
	return ev, true
}

// Close graceful shutdown
func (s *Subscriber) Close() error {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Warn("failed to unsubscribe", "error", err)
		}
	}
	if s.iter != nil {
		s.iter.Stop()
	}

	s.wg.Wait()

	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
