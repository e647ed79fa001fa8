package worker

import (
	"log"
	"sync"

	"github.com/streadway/amqp"

	"message-stats/internal/metrics"
)

// HandlerFunc processes a single delivery, including ack or reject.
type HandlerFunc func(delivery amqp.Delivery)

// WorkerPool fans deliveries out to a fixed number of goroutines.
type WorkerPool struct {
	handler HandlerFunc
	jobs    chan amqp.Delivery
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
}

func NewWorkerPool(workerCount int, handler HandlerFunc) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &WorkerPool{
		handler: handler,
		jobs:    make(chan amqp.Delivery),
		stopCh:  make(chan struct{}),
		workers: workerCount,
	}
}

func (wp *WorkerPool) Start() {
	log.Printf("[Worker] Starting pool with %d workers", wp.workers)

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()

			metrics.WorkerActive.Add(1)
			defer metrics.WorkerActive.Sub(1)

			for {
				select {
				case <-wp.stopCh:
					return
				case msg, ok := <-wp.jobs:
					if !ok {
						return
					}
					wp.handler(msg)
				}
			}
		}()
	}
}

// Submit hands a delivery to the pool. Deliveries arriving after Stop are
// dropped unacked and will be redelivered by the broker.
func (wp *WorkerPool) Submit(msg amqp.Delivery) {
	select {
	case wp.jobs <- msg:
	case <-wp.stopCh:
	}
}

func (wp *WorkerPool) Stop() {
	log.Printf("[Worker] Stopping pool")
	close(wp.stopCh)
	wp.wg.Wait()
}
