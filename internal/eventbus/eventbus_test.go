package eventbus

import "testing"

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	b := New()
	var a, c int
	b.Subscribe(TopicWakeWord, func(ev Event) { a++ })
	b.Subscribe(TopicWakeWord, func(ev Event) { c++ })
	b.Subscribe(TopicPlayerState, func(ev Event) { t.Fatal("wrong topic delivered") })

	b.Publish(Event{Topic: TopicWakeWord, Data: WakeWordFired{DetectorID: "x"}})

	if a != 1 || c != 1 {
		t.Fatalf("expected both subscribers called once, got a=%d c=%d", a, c)
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(Event{Topic: "nobody-listens"})
}

func TestSubscribersSeePayload(t *testing.T) {
	b := New()
	var got WakeWordFired
	b.Subscribe(TopicWakeWord, func(ev Event) {
		got = ev.Data.(WakeWordFired)
	})
	b.Publish(Event{Topic: TopicWakeWord, Data: WakeWordFired{DetectorID: "hey_satellite", IsStopWord: true}})

	if got.DetectorID != "hey_satellite" || !got.IsStopWord {
		t.Fatalf("unexpected payload: %+v", got)
	}
}
