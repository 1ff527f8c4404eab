package produce

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/velora/catalog-service/jobs"
)

const (
	JobEventExchange = "jobs.events"
	JobEventQueue    = "jobs.terminal"
)

// JobEventService publishes terminal job snapshots for external observers
// (webhooks, analytics). This channel is best-effort only: the job table
// stays the single source of truth and the dispatch path never goes
// through the broker.
type JobEventService struct {
	channel *amqp.Channel
}

func InitJobEventService(channel *amqp.Channel) *JobEventService {
	service := &JobEventService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		JobEventExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Job Event exchange: " + err.Error())
	}

	_, err = channel.QueueDeclare(
		JobEventQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		panic("Failed to declare Job Event queue: " + err.Error())
	}

	err = channel.QueueBind(
		JobEventQueue,
		"jobs.#",
		JobEventExchange,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to bind Job Event queue: " + err.Error())
	}

	return service
}

// PublishJobEvent publishes one terminal snapshot, routed by job type and
// terminal status (e.g. "jobs.sync.completed").
func (s *JobEventService) PublishJobEvent(ctx context.Context, snapshot jobs.Snapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	routingKey := fmt.Sprintf("jobs.%s.%s", snapshot.Type, snapshot.Status)

	return s.channel.PublishWithContext(
		ctx,
		JobEventExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}
