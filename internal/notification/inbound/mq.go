package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/goshen/internal/pkg/config"
	"github.com/shandysiswandi/goshen/internal/pkg/goroutine"
	"github.com/shandysiswandi/goshen/internal/pkg/instrument"
	"github.com/shandysiswandi/goshen/internal/pkg/messaging"
	"github.com/shandysiswandi/goshen/internal/pkg/uid"
	"github.com/shandysiswandi/goshen/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // nats queue group, kafka consumer group, nsq channel, pubsub subscription
		handler messaging.Handler
	}{
		{
			name:    event.TwoFactorSecurityConsumerNotification,
			topic:   event.TwoFactorSecurityDestination,
			group:   event.TwoFactorSecurityConsumerNotification,
			handler: mqHandler.SecurityAlertNotification,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithGroup(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(cfg.GetInt("modules.notification.consumer_concurrency")),
			)
		})
	}
}
