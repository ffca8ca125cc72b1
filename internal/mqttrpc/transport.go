// Package mqttrpc serves the relay commands over MQTT and publishes the relay
// state as a retained message.
//
// Topics, relative to the configured prefix:
//
//	<prefix>/rpc           JSON-RPC requests
//	<prefix>/rpc/response  responses to requests without a reply-to topic
//	<prefix>/state         retained relay state name ("open" or "close")
//	<prefix>/status        retained "online", or "offline" via the last will
package mqttrpc

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/larsks/relayrpc/internal/relay"
	"github.com/larsks/relayrpc/internal/rpc"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Broker is the subset of mqtt.Client used by the transport.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
}

// Transport connects a dispatcher and a relay to an MQTT broker.
type Transport struct {
	prefix     string
	dispatcher *rpc.Dispatcher
	relay      *relay.Controller

	ctx    context.Context
	mu     sync.Mutex
	broker Broker

	// State changes are published from a separate goroutine so a stalled
	// broker never holds up a command. Only the latest state is kept.
	stateMu    sync.Mutex
	pending    relay.State
	hasPending bool
	wake       chan struct{}
}

// New creates a transport. ctx is passed to every dispatched command; state
// publication stops when it is cancelled.
func New(ctx context.Context, prefix string, d *rpc.Dispatcher, r *relay.Controller) *Transport {
	t := &Transport{
		prefix:     prefix,
		dispatcher: d,
		relay:      r,
		ctx:        ctx,
		wake:       make(chan struct{}, 1),
	}
	r.OnChange(t.queueState)
	go t.publishLoop()
	return t
}

func (t *Transport) RequestTopic() string  { return t.prefix + "/rpc" }
func (t *Transport) ResponseTopic() string { return t.prefix + "/rpc/response" }
func (t *Transport) StateTopic() string    { return t.prefix + "/state" }
func (t *Transport) StatusTopic() string   { return t.prefix + "/status" }

// Attach subscribes to the request topic on b and announces the current
// state. It is called on every (re)connect.
func (t *Transport) Attach(b Broker) error {
	t.mu.Lock()
	t.broker = b
	t.mu.Unlock()

	if err := b.Subscribe(t.RequestTopic(), 1, t.handleMessage); err != nil {
		return err
	}
	log.Printf("serving rpc on mqtt topic %s", t.RequestTopic())

	if err := b.Publish(t.StatusTopic(), 1, true, StatusOnline); err != nil {
		return err
	}
	t.queueState(t.relay.State())
	return nil
}

// Detach announces that the relay is going offline and stops publishing.
func (t *Transport) Detach() {
	t.mu.Lock()
	b := t.broker
	t.broker = nil
	t.mu.Unlock()

	if b == nil {
		return
	}
	if err := b.Publish(t.StatusTopic(), 1, true, StatusOffline); err != nil {
		log.Printf("failed to publish offline status: %v", err)
	}
}

func (t *Transport) currentBroker() Broker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.broker
}

// queueState records s as the next state to publish. It never blocks.
func (t *Transport) queueState(s relay.State) {
	t.stateMu.Lock()
	t.pending = s
	t.hasPending = true
	t.stateMu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Transport) publishLoop() {
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-t.wake:
		}

		t.stateMu.Lock()
		s, ok := t.pending, t.hasPending
		t.hasPending = false
		t.stateMu.Unlock()

		if ok {
			t.publishState(s)
		}
	}
}

func (t *Transport) publishState(s relay.State) {
	b := t.currentBroker()
	if b == nil {
		return
	}
	if err := b.Publish(t.StateTopic(), 1, true, relay.Name(s)); err != nil {
		log.Printf("failed to publish relay state: %v", err)
	}
}

func (t *Transport) handleMessage(topic string, payload []byte) {
	b := t.currentBroker()
	if b == nil {
		return
	}

	replyTo := t.ResponseTopic()
	var out []byte

	req, err := rpc.DecodeRequest(payload)
	if err != nil {
		out = t.dispatcher.Call(t.ctx, payload)
	} else {
		if req.ReplyTo != "" {
			replyTo = req.ReplyTo
		}
		if resp := t.dispatcher.Serve(t.ctx, req); resp != nil {
			out, err = json.Marshal(resp)
			if err != nil {
				log.Printf("failed to encode response to %s: %v", req.Method, err)
				return
			}
		}
	}

	if out == nil {
		return
	}
	if err := b.Publish(replyTo, 1, false, out); err != nil {
		log.Printf("failed to publish rpc response on %s: %v", replyTo, err)
	}
}
