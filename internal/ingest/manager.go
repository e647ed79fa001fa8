// internal/ingest/manager.go
package ingest

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/streadway/amqp"

	"message-stats/internal/consumer"
	"message-stats/internal/messaging"
	"message-stats/internal/metrics"
	"message-stats/internal/model"
	"message-stats/internal/storage"
	"message-stats/internal/worker"
)

// Manager owns the queue ingestion path: it declares the queues, runs the
// consumer and the worker pool, and persists validated payloads.
type Manager struct {
	rabbit  *messaging.RabbitClient
	storage *storage.Storage
	workers int

	mu       sync.Mutex
	consumer *consumer.Consumer
	pool     *worker.WorkerPool
}

func NewManager(rabbit *messaging.RabbitClient, storage *storage.Storage, workers int) *Manager {
	return &Manager{
		rabbit:  rabbit,
		storage: storage,
		workers: workers,
	}
}

// Start declares the queues and spawns the worker pool and consumer
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumer != nil {
		return nil // already running
	}

	if err := m.rabbit.DeclareQueues(); err != nil {
		return err
	}

	pool := worker.NewWorkerPool(m.workers, m.handleDelivery)
	pool.Start()

	c, err := consumer.StartConsumer(m.rabbit.GetConnection(), messaging.IngestQueue, pool.Submit)
	if err != nil {
		pool.Stop()
		return err
	}

	m.pool = pool
	m.consumer = c

	log.Printf("Ingest started with %d workers", m.workers)
	return nil
}

// Shutdown stops the consumer and drains the worker pool
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consumer == nil {
		return
	}

	m.consumer.Stop()
	m.pool.Stop()
	m.consumer = nil
	m.pool = nil

	log.Printf("Ingest stopped")
}

// handleDelivery validates and persists one queued payload (callback from
// the worker pool). Malformed payloads go to the DLQ; duplicate uuids are
// acked and dropped since redelivery can never succeed.
func (m *Manager) handleDelivery(msg amqp.Delivery) {
	var rec model.Message
	if err := json.Unmarshal(msg.Body, &rec); err != nil {
		log.Printf("[Ingest] Rejecting malformed payload: %v", err)
		metrics.IngestFailures.WithLabelValues("malformed").Inc()
		_ = msg.Reject(false) // send to DLQ
		return
	}

	if err := rec.Validate(); err != nil {
		log.Printf("[Ingest] Rejecting invalid payload: %v", err)
		metrics.IngestFailures.WithLabelValues("invalid").Inc()
		_ = msg.Reject(false)
		return
	}

	if err := m.storage.InsertMessage(&rec); err != nil {
		if errors.Is(err, storage.ErrDuplicateMessage) {
			log.Printf("[Ingest] Dropping duplicate message %s", rec.UUID)
			metrics.IngestFailures.WithLabelValues("duplicate").Inc()
			_ = msg.Ack(false)
			return
		}
		log.Printf("[Ingest] DB insert failed: %v", err)
		metrics.IngestFailures.WithLabelValues("storage").Inc()
		_ = msg.Nack(false, false)
		return
	}

	_ = msg.Ack(false)
	metrics.MessagesCreated.WithLabelValues("queue").Inc()
}
