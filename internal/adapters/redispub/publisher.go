// Package redispub publishes domain events on Redis pub/sub channels.
package redispub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brpay/charge-service/internal/domain/ports"
	"github.com/brpay/charge-service/pkg/timeutil"
)

// Config holds Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	// ChannelPrefix namespaces event channels, e.g. "charge-service"
	ChannelPrefix string
}

// Publisher implements ports.MessagingPort over Redis pub/sub
type Publisher struct {
	client *redis.Client
	prefix string
	logger ports.Logger
}

// NewPublisher connects to Redis and verifies the connection
func NewPublisher(ctx context.Context, config Config, logger ports.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	prefix := config.ChannelPrefix
	if prefix == "" {
		prefix = "charge-service"
	}

	return &Publisher{client: client, prefix: prefix, logger: logger}, nil
}

// envelope is the wire format for published events
type envelope struct {
	Event      string                 `json:"event"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// Publish serializes the payload and publishes it on "<prefix>.<eventName>".
// Delivery is fire-and-forget; subscribers that are down miss the event.
func (p *Publisher) Publish(ctx context.Context, eventName string, payload map[string]interface{}) error {
	body, err := json.Marshal(envelope{
		Event:      eventName,
		OccurredAt: timeutil.Now(),
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", eventName, err)
	}

	channel := p.prefix + "." + eventName
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", eventName, err)
	}

	if p.logger != nil {
		p.logger.Debug("event published",
			ports.String("event", eventName),
			ports.String("channel", channel))
	}
	return nil
}

// Close releases the Redis connection
func (p *Publisher) Close() error {
	return p.client.Close()
}

var _ ports.MessagingPort = (*Publisher)(nil)
