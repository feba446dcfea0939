// Package eventbus is a small in-process topic broker used to
// decouple the audio/wake-word/satellite contexts from anything that
// wants to observe them without being on their hot path, such as LED
// feedback or diagnostics logging. The satellite publishes to it; no
// subscriber is registered within this repository.
package eventbus

import "sync"

// Event is whatever payload a topic publisher wants subscribers to
// see. The bus itself is payload-agnostic.
type Event struct {
	Topic string
	Data  any
}

// Bus dispatches published events to every subscriber of a topic.
// Safe for concurrent use. Publish is synchronous and non-blocking:
// handlers run on the publisher's goroutine, so subscribers must not
// block or re-enter the bus from within a handler.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]func(Event)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]func(Event))}
}

// Subscribe registers fn to be called for every event published to
// topic, in subscription order.
func (b *Bus) Subscribe(topic string, fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], fn)
}

// Publish delivers ev to every current subscriber of ev.Topic.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	handlers := append([]func(Event){}, b.subs[ev.Topic]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// Well-known topic names shared across the satellite's contexts.
const (
	TopicWakeWord    = "wakeword"     // Data: WakeWordFired
	TopicPlayerState = "player_state" // Data: PlayerStateChanged
	TopicStreaming   = "streaming"    // Data: StreamingChanged
	TopicTimer       = "timer"        // Data: TimerRinging
	TopicEntityDirty = "entity_dirty" // Data: nil
)

// WakeWordFired is published when a detector (or the stop word) fires.
type WakeWordFired struct {
	DetectorID string
	IsStopWord bool
}

// PlayerStateChanged is the payload type for TopicPlayerState,
// describing a player.Handle's lifecycle state. No component in this
// repository publishes it yet.
type PlayerStateChanged struct {
	Name  string
	State string
}

// StreamingChanged is published when the satellite starts or stops
// streaming microphone audio to the hub during a voice pipeline run.
type StreamingChanged struct {
	Streaming bool
}

// TimerRinging is published when a finished timer starts or stops
// ringing, so an LED consumer can distinguish an alarm from a wake.
type TimerRinging struct {
	Ringing bool
}
