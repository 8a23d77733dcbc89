package server

import (
	"encoding/json"
	"strconv"
	"sync"
)

// GameEvent is the payload published to a player's event subscribers so a
// transport can push prompts and results in real time.
type GameEvent struct {
	Type    string `json:"type"` // prompt, result, level_up, quest_complete
	UserID  int64  `json:"userId"`
	Level   int    `json:"level,omitempty"`
	Variant string `json:"variant,omitempty"`
	Verdict string `json:"verdict,omitempty"`
	Score   *int   `json:"score,omitempty"`
}

// Broker is an in-process pub/sub for game events, keyed by user ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the user.
func (b *Broker) Subscribe(userID int64) chan []byte {
	key := strconv.FormatInt(userID, 10)
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[chan []byte]struct{})
	}
	b.subs[key][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the user's subscribers.
func (b *Broker) Unsubscribe(userID int64, ch chan []byte) {
	key := strconv.FormatInt(userID, 10)
	b.mu.Lock()
	delete(b.subs[key], ch)
	if len(b.subs[key]) == 0 {
		delete(b.subs, key)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given user.
func (b *Broker) Publish(event GameEvent) {
	key := strconv.FormatInt(event.UserID, 10)
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[key] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
