// Package bus announces publish events over NATS.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MrSnakeDoc/pulsepage/internal/domain"
)

const DefaultSubject = "pulsepage.published"

// Event is the payload sent on every publish. Credentials are never included.
type Event struct {
	SiteID       string    `json:"site_id"`
	Subdomain    string    `json:"subdomain"`
	MonitorCount int       `json:"monitor_count"`
	PublishedAt  time.Time `json:"published_at"`
}

// NewEvent summarizes p.
func NewEvent(p domain.PublishedConfig) Event {
	return Event{
		SiteID:       p.SiteID,
		Subdomain:    p.Subdomain,
		MonitorCount: len(p.Monitors),
		PublishedAt:  p.PublishedAt,
	}
}

type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to url and publishes on subject.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("pulsepage"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// AnnouncePublished sends the event of p.
func (p *Publisher) AnnouncePublished(_ context.Context, snapshot domain.PublishedConfig) error {
	data, err := json.Marshal(NewEvent(snapshot))
	if err != nil {
		return fmt.Errorf("failed to encode publish event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe calls handler for every event on the publisher's subject.
// Malformed messages are dropped.
func (p *Publisher) Subscribe(handler func(Event)) (*nats.Subscription, error) {
	return p.conn.Subscribe(p.subject, func(msg *nats.Msg) {
		evt, err := DecodeEvent(msg.Data)
		if err != nil {
			return
		}
		handler(evt)
	})
}

func DecodeEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("failed to decode publish event: %w", err)
	}
	return evt, nil
}

// Connected reports whether the connection is usable.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
		p.conn.Close()
	}
}
