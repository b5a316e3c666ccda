package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Broker connection retry defaults. Delays double from DefaultConnectDelay up to maxConnectDelay.
const (
	DefaultConnectAttempts = 10
	DefaultConnectDelay    = 2 * time.Second
	maxConnectDelay        = 30 * time.Second
)

// ConnectRabbitMQ dials the broker, retrying while it is still starting up
func ConnectRabbitMQ(ctx context.Context, amqpURL string, log *zap.Logger) (*RabbitMQQueue, error) {
	return connectWithRetry(ctx, func() (*RabbitMQQueue, error) {
		return NewRabbitMQQueue(amqpURL, log)
	}, DefaultConnectAttempts, DefaultConnectDelay, log)
}

func connectWithRetry[T any](ctx context.Context, dial func() (T, error), attempts int, delay time.Duration, log *zap.Logger) (T, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if attempts < 1 {
		attempts = 1
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dial()
		if err == nil {
			log.Info("connected_to_rabbitmq", zap.Int("attempt", attempt))
			return conn, nil
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		log.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", attempts),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxConnectDelay {
			delay = maxConnectDelay
		}
	}
	return zero, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, lastErr)
}
