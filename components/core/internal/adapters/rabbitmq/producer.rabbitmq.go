package rabbitmq

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
	"github.com/GrimoireLabs/grimoire/pkg/mrabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ProducerRepository provides an interface for publishing messages to rabbitmq.
//
//go:generate mockgen --destination=producer.mock.go --package=rabbitmq . ProducerRepository
type ProducerRepository interface {
	ProducerDefault(ctx context.Context, exchange, key string, message []byte) error
	CheckRabbitMQHealth() bool
}

// ProducerRabbitMQRepository is a rabbitmq implementation of the producer.
type ProducerRabbitMQRepository struct {
	conn *mrabbitmq.RabbitMQConnection
}

// NewProducerRabbitMQ returns a new instance of ProducerRabbitMQRepository using the given rabbitmq connection.
func NewProducerRabbitMQ(c *mrabbitmq.RabbitMQConnection) *ProducerRabbitMQRepository {
	prmq := &ProducerRabbitMQRepository{
		conn: c,
	}

	_, err := c.GetChannel(context.Background())
	if err != nil {
		panic("Failed to connect rabbitmq")
	}

	return prmq
}

// CheckRabbitMQHealth checks the health of the rabbitmq connection.
func (prmq *ProducerRabbitMQRepository) CheckRabbitMQHealth() bool {
	return prmq.conn.HealthCheck()
}

// ProducerDefault publishes a persistent message on exchange with the routing key.
func (prmq *ProducerRabbitMQRepository) ProducerDefault(ctx context.Context, exchange, key string, message []byte) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	logger.Infof("Init sent message to exchange: %s, key: %s", exchange, key)

	ctx, spanProducer := tracer.Start(ctx, "rabbitmq.producer.publish_message")
	defer spanProducer.End()

	ch, err := prmq.conn.GetChannel(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&spanProducer, "Failed to get rabbitmq channel", err)

		return err
	}

	err = ch.PublishWithContext(
		ctx,
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers: amqp.Table{
				"X-Request-Id": pkg.NewRequestIDFromContext(ctx),
			},
			Body: message,
		})
	if err != nil {
		mopentelemetry.HandleSpanError(&spanProducer, "Failed to publish message", err)

		logger.Errorf("Failed to publish message: %s", err)

		return err
	}

	logger.Infof("Message sent successfully to exchange: %s, key: %s", exchange, key)

	return nil
}
