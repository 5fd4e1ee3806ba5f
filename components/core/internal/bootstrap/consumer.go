package bootstrap

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/GrimoireLabs/grimoire/components/core/internal/adapters/rabbitmq"
	"github.com/GrimoireLabs/grimoire/components/core/internal/services/command"
	"github.com/GrimoireLabs/grimoire/pkg"
	"github.com/GrimoireLabs/grimoire/pkg/mmodel"
	"github.com/GrimoireLabs/grimoire/pkg/mopentelemetry"
)

// MultiQueueConsumer hosts the notification dispatcher's queue consumers.
type MultiQueueConsumer struct {
	consumerRoutes *rabbitmq.ConsumerRoutes
	UseCase        *command.UseCase
}

// NewMultiQueueConsumer create a new instance of MultiQueueConsumer.
func NewMultiQueueConsumer(routes *rabbitmq.ConsumerRoutes, useCase *command.UseCase, eventsQueue string) *MultiQueueConsumer {
	consumer := &MultiQueueConsumer{
		consumerRoutes: routes,
		UseCase:        useCase,
	}

	routes.Register(eventsQueue, consumer.handlerTerminalEventsQueue)

	return consumer
}

// Run starts consumers for all registered queues.
func (mq *MultiQueueConsumer) Run(l *pkg.Launcher) error {
	err := mq.consumerRoutes.RunConsumers()
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return nil
}

// handlerTerminalEventsQueue routes one terminal generation event through the
// notification dispatcher.
func (mq *MultiQueueConsumer) handlerTerminalEventsQueue(ctx context.Context, body []byte) error {
	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "consumer.handler_terminal_events_queue")
	defer span.End()

	var event mmodel.TerminalEvent

	err := json.Unmarshal(body, &event)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Error unmarshalling message JSON", err)

		logger.Errorf("Error unmarshalling terminal event JSON: %v", err)

		return err
	}

	logger.Infof("Terminal event consumed: generation %s (%s)", event.GenerationID, event.Strategy)

	err = mq.UseCase.DispatchTerminalEvent(ctx, event)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Error dispatching terminal event", err)

		logger.Errorf("Error dispatching terminal event: %v", err)

		return err
	}

	return nil
}
