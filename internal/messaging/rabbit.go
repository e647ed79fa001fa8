// internal/messaging/rabbit.go
package messaging

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"

	"message-stats/internal/metrics"
)

const (
	// IngestQueue carries message records submitted asynchronously.
	IngestQueue = "messages_ingest"
	// IngestDLQ receives payloads rejected by the ingest workers.
	IngestDLQ = "messages_ingest_dlq"
)

type RabbitClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewRabbitClient(url string) (*RabbitClient, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &RabbitClient{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (r *RabbitClient) GetChannel() *amqp.Channel {
	return r.channel
}

func (r *RabbitClient) GetConnection() *amqp.Connection {
	return r.conn
}

// DeclareQueues creates the durable ingest queue and its dead-letter queue
func (r *RabbitClient) DeclareQueues() error {
	// 1. DLQ
	_, err := r.channel.QueueDeclare(
		IngestDLQ,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	// 2. Main queue with DLQ binding
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": IngestDLQ,
	}
	_, err = r.channel.QueueDeclare(
		IngestQueue,
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare ingest queue: %w", err)
	}

	log.Printf("[Rabbit] Queues declared: %s, %s", IngestQueue, IngestDLQ)
	return nil
}

// Publish sends a message record payload to the ingest queue
func (r *RabbitClient) Publish(body []byte) error {
	err := r.channel.Publish(
		"",          // default exchange
		IngestQueue, // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", IngestQueue, err)
	}
	return nil
}

// Close cleans up connection and channel
func (r *RabbitClient) Close() error {
	if err := r.channel.Close(); err != nil {
		return err
	}
	if err := r.conn.Close(); err != nil {
		return err
	}
	return nil
}

func (r *RabbitClient) UpdateQueueDepth() {
	q, err := r.channel.QueueInspect(IngestQueue)
	if err != nil {
		log.Printf("[Rabbit] Failed to inspect queue %s: %v", IngestQueue, err)
		return
	}

	metrics.QueueDepth.Set(float64(q.Messages))
}
