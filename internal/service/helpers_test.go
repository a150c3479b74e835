package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akylbek/payment-system/payment-config/internal/models"
	"github.com/akylbek/payment-system/payment-config/internal/repository"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordedEvent struct {
	topic string
	event models.PaymentEvent
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event models.PaymentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, event: event})
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}

// newTestStorage returns in-memory repositories.
func newTestStorage(t *testing.T) *repository.FileStorage {
	t.Helper()
	fs, err := repository.NewFileStorage("")
	require.NoError(t, err)
	return fs
}

func completeBank() models.BankDetails {
	return models.BankDetails{
		AccountHolderName: "Asha Rao",
		BankName:          "State Bank",
		AccountNumber:     "001234567",
		IFSC:              "SBIN0001234",
	}
}

// blockingPublisher parks every event of one type until release is closed.
type blockingPublisher struct {
	eventType string
	entered   chan struct{}
	release   chan struct{}
}

func newBlockingPublisher(eventType string) *blockingPublisher {
	return &blockingPublisher{
		eventType: eventType,
		entered:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
}

func (p *blockingPublisher) Publish(ctx context.Context, topic string, event models.PaymentEvent) error {
	if event.Type != p.eventType {
		return nil
	}
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
	return nil
}

func (p *blockingPublisher) Close() error {
	return nil
}

// waitFor fails the test when ch does not deliver within a second.
func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
