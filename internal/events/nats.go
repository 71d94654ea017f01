package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	StreamName = "share-events"
	streamAge  = 30 * 24 * time.Hour
)

var ErrNotConnected = errors.New("jetstream not initialized")

// NATSPublisher publishes share lifecycle events to a JetStream stream.
type NATSPublisher struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log zerolog.Logger
}

// Connect dials NATS, enables JetStream and makes sure the share stream exists.
func Connect(url string, log zerolog.Logger) (*NATSPublisher, error) {
	log = log.With().Str("component", "nats").Logger()
	nc, err := nats.Connect(url,
		nats.Name("sharegate"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	p := &NATSPublisher{nc: nc, js: js, log: log}
	if err := p.ensureStream(); err != nil {
		log.Warn().Err(err).Str("stream", StreamName).Msg("failed to ensure stream")
	}
	log.Info().Msg("connected and JetStream initialized")
	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(StreamName); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"shares.*"},
		Storage:  nats.FileStorage,
		MaxAge:   streamAge,
	})
	return err
}

// Publish stores payload as JSON on subject. Each message carries a unique
// MsgId so JetStream drops duplicates on retry.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if p == nil || p.js == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.NewString()), nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p != nil && p.nc != nil {
		p.nc.Drain()
	}
}

// NopPublisher discards events. Used when NATS_URL is empty.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// LogPublisher writes events to the log instead of a broker.
type LogPublisher struct {
	Log zerolog.Logger
}

func (l LogPublisher) Publish(_ context.Context, subject string, payload any) error {
	l.Log.Debug().Str("subject", subject).Interface("event", payload).Msg("share event")
	return nil
}
