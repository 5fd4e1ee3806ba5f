package mrabbitmq

import (
	"context"

	"github.com/GrimoireLabs/grimoire/pkg/mlog"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConnection is a hub which deal with rabbitmq connections.
type RabbitMQConnection struct {
	ConnectionStringSource string
	Connection             *amqp.Connection
	Channel                *amqp.Channel
	Connected              bool
	Logger                 mlog.Logger
}

// Connect keeps a singleton connection with rabbitmq.
func (rc *RabbitMQConnection) Connect(ctx context.Context) error {
	rc.Logger.Info("Connecting on rabbitmq...")

	conn, err := amqp.Dial(rc.ConnectionStringSource)
	if err != nil {
		rc.Logger.Fatalf("failed to connect on rabbitmq: %v", err)

		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		rc.Logger.Fatalf("failed to open channel on rabbitmq: %v", err)

		return err
	}

	rc.Logger.Info("Connected on rabbitmq ✅ ")

	rc.Connected = true
	rc.Connection = conn
	rc.Channel = ch

	return nil
}

// GetChannel returns a pointer to the rabbitmq channel, initializing it if necessary.
func (rc *RabbitMQConnection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if !rc.Connected || rc.Channel == nil || rc.Channel.IsClosed() {
		err := rc.Connect(ctx)
		if err != nil {
			rc.Logger.Errorf("ERRCONECT %s", err)

			return nil, err
		}
	}

	return rc.Channel, nil
}

// HealthCheck reports whether the underlying connection is still usable.
func (rc *RabbitMQConnection) HealthCheck() bool {
	if rc.Connection == nil || rc.Connection.IsClosed() {
		rc.Logger.Error("rabbitmq unhealthy...")

		return false
	}

	return true
}
