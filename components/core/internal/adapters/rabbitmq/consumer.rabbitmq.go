package rabbitmq

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	"github.com/GrimoireLabs/grimoire/pkg/mrabbitmq"
	"go.opentelemetry.io/otel/trace"
)

// QueueHandlerFunc is a function that processes one message from a queue.
type QueueHandlerFunc func(ctx context.Context, body []byte) error

// ConsumerRepository provides an interface for registering queue handlers and
// running consumers over them.
type ConsumerRepository interface {
	Register(queueName string, handler QueueHandlerFunc)
	RunConsumers() error

	// QueueDepth reports the backlog of a queue, feeding admission control.
	QueueDepth(ctx context.Context, queueName string) (int, error)
}

// ConsumerRoutes struct  with rabbitmq connection, log, and a map of queues and their handlers.
type ConsumerRoutes struct {
	conn *mrabbitmq.RabbitMQConnection

	// Workers bounds the concurrent deliveries per queue; it is mirrored into the
	// channel prefetch so the broker never over-commits this consumer.
	Workers int

	routes map[string]QueueHandlerFunc

	logger mlog.Logger
	tracer trace.Tracer
}

// NewConsumerRoutes creates a new instance of ConsumerRoutes.
func NewConsumerRoutes(conn *mrabbitmq.RabbitMQConnection, workers int, logger mlog.Logger, tracer trace.Tracer) *ConsumerRoutes {
	if workers <= 0 {
		workers = 4
	}

	cr := &ConsumerRoutes{
		conn:    conn,
		Workers: workers,
		routes:  make(map[string]QueueHandlerFunc),
		logger:  logger,
		tracer:  tracer,
	}

	_, err := conn.GetChannel(context.Background())
	if err != nil {
		panic("Failed to connect rabbitmq")
	}

	return cr
}

// Register adds a queue handler to the routes.
func (cr *ConsumerRoutes) Register(queueName string, handler QueueHandlerFunc) {
	cr.routes[queueName] = handler
}

// RunConsumers starts a bounded worker pool per registered queue. Handler errors
// nack the delivery back onto the queue so the broker redelivers it; the handlers
// are idempotent by generation id, which makes at-least-once safe.
func (cr *ConsumerRoutes) RunConsumers() error {
	for queueName, handler := range cr.routes {
		cr.logger.Infof("Init consumer for queue: %s", queueName)

		ch, err := cr.conn.GetChannel(context.Background())
		if err != nil {
			return err
		}

		if err := ch.Qos(cr.Workers, 0, false); err != nil {
			return err
		}

		messages, err := ch.Consume(
			queueName,
			"",
			false,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return err
		}

		for i := 0; i < cr.Workers; i++ {
			go func(queueName string, handler QueueHandlerFunc) {
				for message := range messages {
					ctx := pkg.ContextWithLogger(context.Background(), cr.logger)
					ctx = pkg.ContextWithTracer(ctx, cr.tracer)

					if requestID, ok := message.Headers["X-Request-Id"].(string); ok {
						ctx = pkg.ContextWithRequestID(ctx, requestID)
					}

					if err := handler(ctx, message.Body); err != nil {
						cr.logger.Errorf("Error processing message from queue %s: %v", queueName, err)

						_ = message.Nack(false, true)

						continue
					}

					_ = message.Ack(false)
				}
			}(queueName, handler)
		}
	}

	return nil
}

// QueueDepth reports the backlog of a queue, feeding admission control.
func (cr *ConsumerRoutes) QueueDepth(ctx context.Context, queueName string) (int, error) {
	ch, err := cr.conn.GetChannel(ctx)
	if err != nil {
		return 0, err
	}

	queue, err := ch.QueueInspect(queueName)
	if err != nil {
		return 0, err
	}

	return queue.Messages, nil
}
