package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/august-web/dev-quoteX/internal/services"
)

// PubSubQuoteEventPublisher sends wizard analytics and request lifecycle events to Pub/Sub.
// Events tied to a saved request go to the quotes topic; the rest go to the analytics topic.
type PubSubQuoteEventPublisher struct {
	analytics *pubsub.Topic
	quotes    *pubsub.Topic
	marshal   func(any) ([]byte, error)
}

var _ services.QuoteEventPublisher = (*PubSubQuoteEventPublisher)(nil)

// NewPubSubQuoteEventPublisher builds a publisher. A nil quotes topic routes everything to analytics.
func NewPubSubQuoteEventPublisher(analytics, quotes *pubsub.Topic) (*PubSubQuoteEventPublisher, error) {
	if analytics == nil {
		return nil, errors.New("pubsub quote event publisher: analytics topic is required")
	}
	if quotes == nil {
		quotes = analytics
	}
	return &PubSubQuoteEventPublisher{
		analytics: analytics,
		quotes:    quotes,
		marshal:   json.Marshal,
	}, nil
}

// PublishQuoteEvent blocks until the broker acknowledges the message and returns its server id.
func (p *PubSubQuoteEventPublisher) PublishQuoteEvent(ctx context.Context, message services.QuoteEventMessage) (string, error) {
	if p == nil || p.analytics == nil {
		return "", errors.New("pubsub quote event publisher: not initialised")
	}
	if strings.TrimSpace(message.Type) == "" {
		return "", errors.New("pubsub quote event publisher: event type is required")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal quote event: %w", err)
	}

	attrs := map[string]string{"type": message.Type}
	setAttr(attrs, "eventId", message.EventID)
	setAttr(attrs, "requestId", message.RequestID)

	topic := p.analytics
	if message.RequestID != "" {
		topic = p.quotes
	}
	msg := &pubsub.Message{Data: data, Attributes: attrs}
	if message.RequestID != "" && topic.EnableMessageOrdering {
		msg.OrderingKey = message.RequestID
	}

	id, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish quote event to %s: %w", topic.ID(), err)
	}
	return id, nil
}

// Stop flushes pending messages on both topics.
func (p *PubSubQuoteEventPublisher) Stop() {
	if p == nil {
		return
	}
	p.analytics.Stop()
	if p.quotes != p.analytics {
		p.quotes.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
