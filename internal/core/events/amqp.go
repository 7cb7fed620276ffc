package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
)

// ErrBrokerDown is returned while the broker is unreachable and the next
// redial is not yet due.
var ErrBrokerDown = errors.New("events: broker unavailable")

const redialEvery = 5 * time.Second

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// session is one live connection. lost fires when the broker drops it.
type session struct {
	ch    publishChannel
	lost  <-chan *amqp.Error
	close func() error
}

func (s *session) alive() bool {
	select {
	case <-s.lost:
		return false
	default:
		return true
	}
}

// AMQPPublisher sends events to a durable topic exchange, routed by type.
// A dropped connection is redialled on the next publish, at most once per
// redial interval.
type AMQPPublisher struct {
	exchange string
	timeout  time.Duration
	connect  func() (*session, error)
	redial   *rate.Limiter

	mu   sync.Mutex
	sess *session
}

func DialAMQP(url, exchange string, timeout time.Duration) (*AMQPPublisher, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	connect := func() (*session, error) { return openSession(url, exchange, timeout) }
	s, err := connect()
	if err != nil {
		return nil, err
	}
	p := newPublisher(exchange, timeout, connect)
	p.sess = s
	return p, nil
}

func newPublisher(exchange string, timeout time.Duration, connect func() (*session, error)) *AMQPPublisher {
	return &AMQPPublisher{
		exchange: exchange,
		timeout:  timeout,
		connect:  connect,
		redial:   rate.NewLimiter(rate.Every(redialEvery), 1),
	}
}

func openSession(url, exchange string, timeout time.Duration) (*session, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("connect amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &session{
		ch:   ch,
		lost: ch.NotifyClose(make(chan *amqp.Error, 1)),
		close: func() error {
			_ = ch.Close()
			return conn.Close()
		},
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := toPublishing(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := p.session()
	if err != nil {
		return err
	}
	err = s.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.drop()
	}
	return err
}

// session returns the live session, redialling if the last one was lost.
// Callers hold p.mu.
func (p *AMQPPublisher) session() (*session, error) {
	if p.sess != nil && p.sess.alive() {
		return p.sess, nil
	}
	p.drop()
	if !p.redial.Allow() {
		return nil, ErrBrokerDown
	}
	s, err := p.connect()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokerDown, err)
	}
	p.sess = s
	return s, nil
}

func (p *AMQPPublisher) drop() {
	if p.sess != nil {
		_ = p.sess.close()
		p.sess = nil
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return nil
	}
	err := p.sess.close()
	p.sess = nil
	return err
}

func toPublishing(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Type:         e.Type,
		Timestamp:    e.OccurredAt,
		Body:         body,
	}, nil
}
