// Package fanout pushes small typed events to every connected viewer of a
// channel.  Delivery is at-most-once and best-effort: a subscriber that is
// too slow simply misses the event and catches up from durable state on its
// next poll or reconnect.  A Redis pub/sub bridge carries events to
// subscribers held by other processes.
package fanout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is the minimal payload pushed to connected viewers.  Clients treat
// it as a refresh hint, not as authoritative state.
type Event struct {
	Type    string `json:"type"`
	PhotoID uint64 `json:"photo_id,omitempty"`
	Units   int64  `json:"units,omitempty"`
}

// subscriberBuffer bounds how far a slow client may lag before events are
// dropped for it.
const subscriberBuffer = 16

const channelPrefix = "fanout:"

// Subscriber is one connected client's event feed.
type Subscriber struct {
	ch chan Event
}

// Events returns the subscriber's receive channel.  The channel is never
// closed; consumers stop by unsubscribing and abandoning it.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Hub is the per-process registry of connected clients, a map from channel
// id to the set of live subscribers, cleaned up on disconnect.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscriber]struct{}
	rdb    *redis.Client // optional cross-process bridge
	origin string        // identifies this process on the bridge
}

// NewHub returns a Hub.  Pass a nil Redis client to keep fan-out purely
// in-process.
func NewHub(rdb *redis.Client) *Hub {
	var buf [8]byte
	_, _ = rand.Read(buf[:])
	return &Hub{
		subs:   make(map[string]map[*Subscriber]struct{}),
		rdb:    rdb,
		origin: hex.EncodeToString(buf[:]),
	}
}

// Subscribe registers a new subscriber on a channel's broadcast topic.
func (h *Hub) Subscribe(channelID string) *Subscriber {
	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	h.mu.Lock()
	set, ok := h.subs[channelID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[channelID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber, dropping the channel's set entirely
// once it is empty.
func (h *Hub) Unsubscribe(channelID string, sub *Subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[channelID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, channelID)
		}
	}
	h.mu.Unlock()
}

// Publish delivers an event to all local subscribers of the channel and,
// when the bridge is configured, to other processes through Redis.  It
// never blocks on any individual subscriber.
func (h *Hub) Publish(channelID string, ev Event) {
	h.deliver(channelID, ev)
	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(envelope{Origin: h.origin, Event: ev})
	if err != nil {
		log.Printf("fanout: marshal event failed: %v", err)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.rdb.Publish(ctx, channelPrefix+channelID, payload).Err(); err != nil {
			log.Printf("fanout: bridge publish failed: %v", err)
		}
	}()
}

// deliver hands the event to every local subscriber without blocking; a
// full buffer means the event is dropped for that subscriber.
func (h *Hub) deliver(channelID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[channelID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// envelope wraps bridged events with the publishing process's identity so
// a process can skip its own messages and keep local delivery at-most-once.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Run consumes the Redis bridge and replays remote events to local
// subscribers.  It returns when the context is cancelled, or immediately
// when no bridge is configured.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}
	pubsub := h.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer func() { _ = pubsub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("fanout: bad bridge payload: %v", err)
				continue
			}
			if env.Origin == h.origin {
				continue // already delivered locally at publish time
			}
			h.deliver(strings.TrimPrefix(msg.Channel, channelPrefix), env.Event)
		}
	}
}
