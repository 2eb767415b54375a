// internal/dispatch/dispatcher.go
package dispatch

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"tenant-chat/internal/model"
	"tenant-chat/internal/notify"
)

// Dispatcher owns one consumer per tenant, draining the tenant's event queue
// and forwarding events to its webhook. Delivery is best-effort: failures go
// to the DLQ and never touch the write path that produced the event.
type Dispatcher struct {
	conn     *amqp.Connection
	notifier *notify.Notifier

	mu        sync.RWMutex
	consumers map[uuid.UUID]*Consumer
	workers   map[uuid.UUID]int
	deliver   map[uuid.UUID]*Deliverer
}

func NewDispatcher(conn *amqp.Connection, notifier *notify.Notifier) *Dispatcher {
	return &Dispatcher{
		conn:      conn,
		notifier:  notifier,
		consumers: make(map[uuid.UUID]*Consumer),
		workers:   make(map[uuid.UUID]int),
		deliver:   make(map[uuid.UUID]*Deliverer),
	}
}

// AddTenant declares the tenant's queues and starts its consumer.
func (d *Dispatcher) AddTenant(t model.Tenant, workers int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.consumers[t.ID]; exists {
		return nil // already running
	}
	if t.DispatchWorkers > 0 {
		workers = t.DispatchWorkers
	}

	if err := d.notifier.DeclareTenantQueues(t.ID); err != nil {
		return err
	}

	deliverer := NewDeliverer(t.WebhookURL)
	c, err := StartConsumer(d.conn, t.ID, workers, func(_ uuid.UUID, body []byte) error {
		return deliverer.Deliver(body)
	})
	if err != nil {
		return err
	}

	d.consumers[t.ID] = c
	d.workers[t.ID] = workers
	d.deliver[t.ID] = deliverer

	log.Printf("[Dispatch] Tenant %s registered", t.ID)
	return nil
}

// RemoveTenant stops the consumer and deletes the tenant's queues.
func (d *Dispatcher) RemoveTenant(tenantID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, exists := d.consumers[tenantID]
	if !exists {
		return
	}

	c.Stop()
	d.notifier.DeleteTenantQueues(tenantID)
	delete(d.consumers, tenantID)
	delete(d.workers, tenantID)
	delete(d.deliver, tenantID)

	log.Printf("[Dispatch] Tenant %s removed", tenantID)
}

// SetWorkerCount rescales a tenant's consumer pool by restarting it.
func (d *Dispatcher) SetWorkerCount(tenantID uuid.UUID, n int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, exists := d.consumers[tenantID]
	if !exists {
		return fmt.Errorf("tenant not found: %s", tenantID)
	}
	if n <= 0 || n == d.workers[tenantID] {
		return nil
	}

	log.Printf("[Dispatch] Tenant %s: rescaling workers %d -> %d", tenantID, d.workers[tenantID], n)
	c.Stop()

	deliverer := d.deliver[tenantID]
	fresh, err := StartConsumer(d.conn, tenantID, n, func(_ uuid.UUID, body []byte) error {
		return deliverer.Deliver(body)
	})
	if err != nil {
		delete(d.consumers, tenantID)
		return err
	}
	d.consumers[tenantID] = fresh
	d.workers[tenantID] = n
	return nil
}

// ListTenantIDs returns all currently registered tenant UUIDs.
func (d *Dispatcher) ListTenantIDs() []uuid.UUID {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(d.consumers))
	for id := range d.consumers {
		ids = append(ids, id)
	}
	return ids
}

// ShutdownAll stops every tenant consumer.
func (d *Dispatcher) ShutdownAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, c := range d.consumers {
		c.Stop()
		log.Printf("[Dispatch] Stopped tenant %s", id)
	}
	d.consumers = make(map[uuid.UUID]*Consumer)
	d.workers = make(map[uuid.UUID]int)
	d.deliver = make(map[uuid.UUID]*Deliverer)
}
