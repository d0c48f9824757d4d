package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/goliatone/go-storefront/auth"
)

const publishTimeout = 5 * time.Second

// Channel is the subset of *amqp.Channel used to publish
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends activity events to a topic exchange. The routing key is
// the event type.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       Channel
	exchange string
	logger   auth.Logger
	now      func() time.Time
	opts     []Option
	closed   bool
}

var _ auth.ActivitySink = (*Publisher)(nil)

// Dial connects to url and declares a durable topic exchange
func Dial(url, exchange string, logger auth.Logger, opts ...Option) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, errors.CategoryOperation, "open channel")
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrap(err, errors.CategoryOperation, "declare exchange")
	}

	p := NewPublisher(ch, exchange, logger, opts...)
	p.conn = conn
	return p, nil
}

// NewPublisher wraps an open channel
func NewPublisher(ch Channel, exchange string, logger auth.Logger, opts ...Option) *Publisher {
	if logger == nil {
		logger = auth.NewDefaultLogger()
	}
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
		now:      time.Now,
		opts:     opts,
	}
}

// Record publishes the event wrapped in an Envelope as a persistent JSON message
func (p *Publisher) Record(ctx context.Context, event auth.ActivityEvent) error {
	p.mu.Lock()
	ch, closed := p.ch, p.closed
	p.mu.Unlock()

	if closed || ch == nil {
		return errors.New("activity publisher is closed", errors.CategoryOperation)
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now()
	}

	body, err := json.Marshal(Wrap(event, p.opts...))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "encode activity event")
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		p.exchange,
		string(event.EventType),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Type:         string(event.EventType),
		},
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "publish activity event")
	}

	p.logger.Debug("activity event published", "type", string(event.EventType), "user_id", event.UserID)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
