package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakePubSub struct {
	published  [][]byte
	publishErr error
	messages   chan []byte
	closed     bool
}

func (f *fakePubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakePubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error) {
	return f.messages, func() error { f.closed = true; return nil }, nil
}

func TestRedisRelayRoundTrip(t *testing.T) {
	bus := NewBus(4, nil, nil)
	ps := &fakePubSub{messages: make(chan []byte, 4)}
	relay, err := NewRedisRelay(ps, "eloity:changes", bus, nil)
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}

	userID := uuid.New()
	got := make(chan Event, 1)
	unsub := bus.Subscribe(ChannelReferrals, userID, func(e Event) { got <- e })
	defer unsub()

	relay.Publish(context.Background(), NewEvent(ChannelReferrals, userID, OperationUpdate, map[string]string{"status": "verified"}))
	if len(ps.published) != 1 {
		t.Fatalf("expected one published payload, got %d", len(ps.published))
	}

	ps.messages <- ps.published[0]
	ps.messages <- []byte("not json")
	close(ps.messages)

	if err := relay.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	ev := waitFor(t, got)
	if ev.UserID != userID || ev.Operation != OperationUpdate {
		t.Fatalf("unexpected relayed event %+v", ev)
	}
	if !ps.closed {
		t.Fatalf("expected subscription to be closed")
	}
}

func TestRedisRelayPublishErrorIsSwallowed(t *testing.T) {
	ps := &fakePubSub{publishErr: errors.New("down")}
	relay, err := NewRedisRelay(ps, "eloity:changes", NewBus(1, nil, nil), nil)
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	relay.Publish(context.Background(), NewEvent(ChannelTrust, uuid.New(), OperationInsert, nil))
}

func TestNewRedisRelayValidation(t *testing.T) {
	if _, err := NewRedisRelay(nil, "c", NewBus(1, nil, nil), nil); err == nil {
		t.Fatalf("expected missing client error")
	}
	if _, err := NewRedisRelay(&fakePubSub{}, "", NewBus(1, nil, nil), nil); err == nil {
		t.Fatalf("expected missing channel error")
	}
}
