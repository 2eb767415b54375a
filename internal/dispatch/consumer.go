// internal/dispatch/consumer.go
package dispatch

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"tenant-chat/internal/metrics"
	"tenant-chat/internal/notify"
)

// HandlerFunc processes one raw event payload. A non-nil error rejects the
// delivery to the DLQ.
type HandlerFunc func(tenantID uuid.UUID, body []byte) error

// Consumer drains one tenant's event queue with a pool of workers.
type Consumer struct {
	TenantID    uuid.UUID
	QueueName   string
	Channel     *amqp.Channel
	StopChan    chan struct{}
	DoneChan    chan struct{}
	Handler     HandlerFunc
	ConsumerTag string
	Workers     int
}

// StartConsumer opens a dedicated channel and starts workers goroutines
// consuming the tenant's event queue.
func StartConsumer(conn *amqp.Connection, tenantID uuid.UUID, workers int, handler HandlerFunc) (*Consumer, error) {
	if workers < 1 {
		workers = 1
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("tenant %s: failed to open channel: %w", tenantID, err)
	}

	queueName := notify.QueueName(tenantID)
	consumerTag := fmt.Sprintf("dispatch-%s", tenantID)

	msgs, err := ch.Consume(
		queueName,
		consumerTag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("tenant %s: failed to start consuming: %w", tenantID, err)
	}

	c := &Consumer{
		TenantID:    tenantID,
		QueueName:   queueName,
		Channel:     ch,
		StopChan:    make(chan struct{}),
		DoneChan:    make(chan struct{}),
		Handler:     handler,
		ConsumerTag: consumerTag,
		Workers:     workers,
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.consumeLoop(msgs)
		}()
	}
	go func() {
		wg.Wait()
		close(c.DoneChan)
	}()

	log.Printf("[Dispatch] Started %d worker(s) for tenant %s", workers, tenantID)
	return c, nil
}

// consumeLoop processes deliveries until StopChan is closed.
func (c *Consumer) consumeLoop(msgs <-chan amqp.Delivery) {
	tenant := c.TenantID.String()
	metrics.DispatchActive.WithLabelValues(tenant).Add(1)
	defer metrics.DispatchActive.WithLabelValues(tenant).Sub(1)

	for {
		select {
		case <-c.StopChan:
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Printf("[Dispatch] Tenant %s: delivery channel closed", c.TenantID)
				return
			}

			if err := c.Handler(c.TenantID, msg.Body); err != nil {
				log.Printf("[Dispatch] Tenant %s: failed to deliver event: %v", c.TenantID, err)
				_ = msg.Reject(false) // send to DLQ
				continue
			}

			_ = msg.Ack(false)
			metrics.EventsDelivered.WithLabelValues(tenant).Inc()
		}
	}
}

// Stop signals the workers to stop and waits for cleanup.
func (c *Consumer) Stop() {
	close(c.StopChan)
	_ = c.Channel.Cancel(c.ConsumerTag, false)
	<-c.DoneChan
	_ = c.Channel.Close()
	log.Printf("[Dispatch] Stopped consumer for tenant %s", c.TenantID)
}
