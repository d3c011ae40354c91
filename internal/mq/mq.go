// Package mq carries conversion tasks from the API server to the
// worker fleet over a configurable broker.
package mq

import (
	"context"
	"fmt"

	"github.com/imago3d/apiserver/config"
)

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a delivered message. A returned error nacks the
// message for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker operations the app uses.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Open selects and constructs the configured backend. An empty backend
// name returns (nil, nil): task publishing is simply disabled.
func Open(ctx context.Context, cfg config.QueueConfig) (Backend, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "pubsub":
		return NewPubSubBackend(ctx, cfg.PubSub)
	case "rabbitmq":
		return NewRabbitMQBackend(cfg.RabbitMQ)
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}
