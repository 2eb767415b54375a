// internal/notify/notify.go
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"tenant-chat/internal/metrics"
)

// Event kinds pushed to the sink.
const (
	KindMessageCreated    = "message.created"
	KindTypingStarted     = "typing.started"
	KindTypingStopped     = "typing.stopped"
	KindParticipantJoined = "participant.joined"
)

// Event is a fire-and-forget notification. The core publishes and moves on;
// delivery failures never block or roll back the operation that produced
// the event.
type Event struct {
	Kind       string            `json:"kind"`
	TenantID   uuid.UUID         `json:"tenant_id"`
	ChannelID  uuid.UUID         `json:"channel_id"`
	CustomerID uuid.UUID         `json:"customer_id,omitempty"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Sink is what the API layer signals after state changes.
type Sink interface {
	Emit(ev Event)
}

// Notifier publishes events to per-tenant RabbitMQ queues.
type Notifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	URL     string
}

func NewNotifier(url string) (*Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	return &Notifier{
		conn:    conn,
		channel: ch,
		URL:     url,
	}, nil
}

func (n *Notifier) GetConnection() *amqp.Connection {
	return n.conn
}

func (n *Notifier) GetChannel() *amqp.Channel {
	return n.channel
}

// DeclareTenantQueues creates the tenant's durable event queue and its DLQ.
func (n *Notifier) DeclareTenantQueues(tenantID uuid.UUID) error {
	queueName := QueueName(tenantID)
	dlqName := fmt.Sprintf("tenant_%s_events_dlq", tenantID)

	_, err := n.channel.QueueDeclare(
		dlqName,
		true, false, false, false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dlqName,
	}
	_, err = n.channel.QueueDeclare(
		queueName,
		true, false, false, false,
		args,
	)
	if err != nil {
		return fmt.Errorf("declare event queue: %w", err)
	}

	log.Printf("[Rabbit] Event queues declared for tenant %s", tenantID)
	return nil
}

// DeleteTenantQueues removes a departing tenant's queues.
func (n *Notifier) DeleteTenantQueues(tenantID uuid.UUID) {
	for _, name := range []string{QueueName(tenantID), fmt.Sprintf("tenant_%s_events_dlq", tenantID)} {
		if _, err := n.channel.QueueDelete(name, false, false, false); err != nil {
			log.Printf("[Rabbit] Failed to delete queue %s: %v", name, err)
		}
	}
}

// Publish sends one event to its tenant's queue.
func (n *Notifier) Publish(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	err = n.channel.Publish(
		"",                     // default exchange
		QueueName(ev.TenantID), // routing key (queue name)
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.OccurredAt,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event for tenant %s: %w", ev.TenantID, err)
	}
	return nil
}

// Emit publishes best-effort: a failure is counted and logged, never
// propagated.
func (n *Notifier) Emit(ev Event) {
	if err := n.Publish(ev); err != nil {
		metrics.NotifyFailures.WithLabelValues(ev.TenantID.String()).Inc()
		log.Printf("[Rabbit] Dropped %s event for tenant %s: %v", ev.Kind, ev.TenantID, err)
	}
}

// UpdateQueueDepth exports the tenant queue's backlog size.
func (n *Notifier) UpdateQueueDepth(tenantID uuid.UUID) {
	q, err := n.channel.QueueInspect(QueueName(tenantID))
	if err != nil {
		log.Printf("[Rabbit] Failed to inspect queue for %s: %v", tenantID, err)
		return
	}
	metrics.QueueDepth.WithLabelValues(tenantID.String()).Set(float64(q.Messages))
}

// Close cleans up connection and channel.
func (n *Notifier) Close() error {
	if err := n.channel.Close(); err != nil {
		return err
	}
	return n.conn.Close()
}

// QueueName is the tenant's event queue.
func QueueName(tenantID uuid.UUID) string {
	return fmt.Sprintf("tenant_%s_events", tenantID)
}

// NoopSink discards events; used where no broker is wired.
type NoopSink struct{}

func (NoopSink) Emit(Event) {}
