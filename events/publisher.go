package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const queueName = "rodroyale_events"

// Publisher fans social events (follows, new catches, account deletions) out
// to an AMQP queue for downstream consumers (notifications, analytics). It is
// optional: a nil Publisher silently drops events.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s: %w", queueName, err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}
	return nil
}

// Publish marshals the payload and enqueues it under the given event name.
// Failures are logged, never propagated: event delivery must not fail the
// request that triggered it.
func (p *Publisher) Publish(event string, payload map[string]interface{}) {
	if p == nil || p.channel == nil {
		return
	}

	payload["event"] = event
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal %s: %v", event, err)
		return
	}

	err = p.channel.Publish(
		"",        // default exchange
		queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		log.Printf("events: publish %s: %v", event, err)
	}
}
