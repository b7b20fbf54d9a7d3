package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/touch-port/internal/event"
)

// doneToken is a paho.Token that has already completed.
type doneToken struct {
	err error
}

func (t doneToken) Wait() bool { return true }

func (t doneToken) WaitTimeout(time.Duration) bool { return true }

func (t doneToken) Error() error { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// scriptedClient stands in for a paho client.
type scriptedClient struct {
	mu           sync.Mutex
	open         bool
	failNext     error
	sent         []string
	qos          []byte
	disconnected bool
}

func (c *scriptedClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *scriptedClient) Publish(_ string, qos byte, _ bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failNext != nil {
		err := c.failNext
		c.failNext = nil
		return doneToken{err: err}
	}

	var p Payload
	if err := json.Unmarshal(payload.([]byte), &p); err != nil {
		return doneToken{err: err}
	}
	c.sent = append(c.sent, p.ID)
	c.qos = append(c.qos, qos)
	return doneToken{}
}

func (c *scriptedClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *scriptedClient) setOpen(open bool) {
	c.mu.Lock()
	c.open = open
	c.mu.Unlock()
}

func (c *scriptedClient) sentIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func recordWithID(id string) event.Record {
	rec := sampleRecord()
	rec.ID = id
	rec.RoutingID = id
	return rec
}

func ids(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func equalIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("sent %d records, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: got %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestRealPublisherSendsWhenConnected(t *testing.T) {
	c := &scriptedClient{open: true}
	p := newRealPublisher(context.Background(), c, "devices/button/events")

	if err := p.Publish(recordWithID("a")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	equalIDs(t, c.sentIDs(), []string{"a"})
	if c.qos[0] != 0 {
		t.Errorf("qos: got %d, want 0", c.qos[0])
	}
	if p.Pending() != 0 {
		t.Errorf("pending: got %d", p.Pending())
	}
}

func TestRealPublisherHoldsWhileDisconnected(t *testing.T) {
	c := &scriptedClient{}
	p := newRealPublisher(context.Background(), c, "t")

	for _, id := range []string{"a", "b"} {
		if err := p.Publish(recordWithID(id)); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	if len(c.sentIDs()) != 0 {
		t.Fatalf("sent while disconnected: %v", c.sentIDs())
	}
	if p.Pending() != 2 {
		t.Fatalf("pending: got %d, want 2", p.Pending())
	}

	c.setOpen(true)
	p.flush()

	equalIDs(t, c.sentIDs(), []string{"a", "b"})
	if p.Pending() != 0 {
		t.Errorf("pending after flush: got %d", p.Pending())
	}
}

// A record published after the connection opens but before the reconnect
// replay must not overtake the held ones, and nothing is sent twice.
func TestRealPublisherKeepsOrderAroundReconnect(t *testing.T) {
	c := &scriptedClient{}
	p := newRealPublisher(context.Background(), c, "t")

	p.Publish(recordWithID("a"))
	p.Publish(recordWithID("b"))

	c.setOpen(true)
	if err := p.Publish(recordWithID("c")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	p.flush()

	equalIDs(t, c.sentIDs(), []string{"a", "b", "c"})
}

func TestRealPublisherSendFailureKeepsQueue(t *testing.T) {
	c := &scriptedClient{}
	p := newRealPublisher(context.Background(), c, "t")

	p.Publish(recordWithID("a"))
	p.Publish(recordWithID("b"))

	c.setOpen(true)
	c.mu.Lock()
	c.failNext = errors.New("broken pipe")
	c.mu.Unlock()

	p.flush()
	if p.Pending() != 2 {
		t.Fatalf("pending after failed replay: got %d, want 2", p.Pending())
	}

	if err := p.Publish(recordWithID("c")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	equalIDs(t, c.sentIDs(), []string{"a", "b", "c"})
	if p.Pending() != 0 {
		t.Errorf("pending: got %d", p.Pending())
	}
}

func TestRealPublisherPublishErrorIsReported(t *testing.T) {
	c := &scriptedClient{open: true, failNext: errors.New("broken pipe")}
	p := newRealPublisher(context.Background(), c, "t")

	if err := p.Publish(recordWithID("a")); err == nil {
		t.Fatal("expected error")
	}
	if p.Pending() != 1 {
		t.Errorf("pending: got %d, want 1", p.Pending())
	}
}

func TestRealPublisherBacklogOverflow(t *testing.T) {
	c := &scriptedClient{}
	p := newRealPublisher(context.Background(), c, "t")

	all := ids("r", BacklogSize+2)
	for _, id := range all {
		p.Publish(recordWithID(id))
	}
	if p.Pending() != BacklogSize {
		t.Fatalf("pending: got %d, want %d", p.Pending(), BacklogSize)
	}

	c.setOpen(true)
	p.flush()

	equalIDs(t, c.sentIDs(), all[2:])
}

// Publishing concurrently with reconnects delivers every record once, in order.
func TestRealPublisherConcurrentReconnects(t *testing.T) {
	c := &scriptedClient{}
	p := newRealPublisher(context.Background(), c, "t")

	want := ids("r", 200)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, id := range want {
			p.Publish(recordWithID(id))
		}
	}()

	for i := 0; ; i++ {
		select {
		case <-done:
			c.setOpen(true)
			p.flush()
			equalIDs(t, c.sentIDs(), want)
			return
		default:
		}
		c.setOpen(i%2 == 0)
		if i%2 == 0 {
			p.flush()
		}
	}
}

func TestRealPublisherClose(t *testing.T) {
	c := &scriptedClient{open: true}
	p := newRealPublisher(context.Background(), c, "t")

	if !p.IsConnected() {
		t.Error("expected connected")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !c.disconnected {
		t.Error("client not disconnected")
	}
}
