package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/touch-port/internal/event"
	"github.com/sweeney/touch-port/internal/logger"
)

// BacklogSize is the number of records held while the broker is unreachable.
const BacklogSize = 256

const publishTimeout = 5 * time.Second

// client is the part of paho.Client the publisher uses.
type client interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker.
//
// Records are sent in Publish order. While the connection is down they are
// held in a bounded backlog and replayed, oldest first, on reconnect or by the
// next Publish that finds the connection open. A record never overtakes one
// that is still held.
type RealPublisher struct {
	ctx    context.Context
	client client
	topic  string

	// mu serialises the connection check, the backlog and every send.
	mu      sync.Mutex
	pending *backlog
}

// NewRealPublisher creates a publisher for the given broker and starts
// connecting in the background. It does not wait for the connection.
func NewRealPublisher(ctx context.Context, broker, clientID, topic string) *RealPublisher {
	p := newRealPublisher(ctx, nil, topic)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			logger.InfoKV(ctx, "mqtt connected", "broker", broker)
			p.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(ctx, "mqtt connection lost", "broker", broker, "error", err)
		})

	c := paho.NewClient(opts)
	p.client = c
	c.Connect()

	return p
}

func newRealPublisher(ctx context.Context, c client, topic string) *RealPublisher {
	return &RealPublisher{
		ctx:     ctx,
		client:  c,
		topic:   topic,
		pending: newBacklog(BacklogSize),
	}
}

// Publish queues rec behind anything already held and, if the broker is
// reachable, sends the whole queue. A send error leaves the unsent records
// queued for the next attempt.
func (p *RealPublisher) Publish(rec event.Record) error {
	payload, err := FormatPayload(rec)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending.push(pendingMsg{payload: payload, qos: QoS(rec.Delivery)})
	if !p.client.IsConnectionOpen() {
		return nil
	}
	return p.sendPending()
}

// flush replays the backlog after a (re)connect.
func (p *RealPublisher) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.sendPending(); err != nil {
		logger.ErrorKV(p.ctx, "replay failed", "pending", p.pending.len(), "error", err)
	}
}

// sendPending sends held messages oldest first until the backlog is empty or
// a send fails. Caller holds p.mu.
func (p *RealPublisher) sendPending() error {
	msgs, dropped := p.pending.drain()
	if dropped > 0 {
		logger.WarnKV(p.ctx, "mqtt backlog overflowed", "dropped", dropped)
	}

	for i, msg := range msgs {
		if err := p.send(msg); err != nil {
			for _, rest := range msgs[i:] {
				p.pending.push(rest)
			}
			return err
		}
	}
	return nil
}

func (p *RealPublisher) send(msg pendingMsg) error {
	token := p.client.Publish(p.topic, msg.qos, false, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of records waiting for the broker.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
