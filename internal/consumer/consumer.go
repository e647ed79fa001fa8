// internal/consumer/consumer.go
package consumer

import (
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

type DeliveryHandlerFunc func(delivery amqp.Delivery)

// Consumer holds control channels and metadata for the running ingest consumer
type Consumer struct {
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     DeliveryHandlerFunc
	ConsumerTag string
}

// StartConsumer starts a goroutine that consumes deliveries from the queue
func StartConsumer(conn *amqp.Connection, queueName string, handler DeliveryHandlerFunc) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue %s: failed to open channel: %w", queueName, err)
	}

	consumerTag := fmt.Sprintf("consumer-%s", queueName)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // autoAck: false to handle manually
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("queue %s: failed to start consuming: %w", queueName, err)
	}

	c := &Consumer{
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
	}

	go c.consumeLoop(msgs)

	log.Printf("Started consumer for queue %s", queueName)
	return c, nil
}

// consumeLoop dispatches deliveries until StopChan is closed
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	defer func() {
		close(c.DoneChan)
	}()

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("Queue %s: delivery channel closed", c.QueueName)
				return
			}
			c.Handler(msg)

		case <-c.StopChan:
			log.Printf("Stopping consumer for queue %s...", c.QueueName)
			_ = c.Channel.Cancel(c.ConsumerTag, false)
			return
		}
	}
}

// Stop signals the consumer to stop and waits for cleanup
func (c *Consumer) Stop() {
	close(c.StopChan)
	<-c.DoneChan
	_ = c.Channel.Close()
	log.Printf("Stopped consumer for queue %s", c.QueueName)
}
