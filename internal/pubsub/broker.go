// Package pubsub implements the real-time progress channel collaborator:
// the Task Executor publishes to a topic (fixed at
// "task:progress") and independent consumers subscribe to read a live
// stream of updates.
package pubsub

import (
	"sync"

	"github.com/argo-mcp/argo/internal/executor"
	"github.com/argo-mcp/argo/internal/logger"
)

// Broker fans out executor.ProgressEvent values to per-topic subscriber
// channels. It implements executor.Publisher.
type Broker struct {
	mu    sync.RWMutex
	chans map[string][]chan executor.ProgressEvent
}

// NewBroker returns an empty Broker.
func NewBroker() *Broker {
	return &Broker{chans: make(map[string][]chan executor.ProgressEvent)}
}

// Subscribe returns a new channel that receives every event published to
// topic from this point on. Call Unsubscribe when the consumer is done.
func (b *Broker) Subscribe(topic string) <-chan executor.ProgressEvent {
	ch := make(chan executor.ProgressEvent, 256)
	b.mu.Lock()
	b.chans[topic] = append(b.chans[topic], ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel previously returned by Subscribe.
func (b *Broker) Unsubscribe(topic string, ch <-chan executor.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.chans[topic]
	for i, c := range subs {
		if (<-chan executor.ProgressEvent)(c) == ch {
			close(c)
			b.chans[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends event to every subscriber of topic without blocking. A
// full subscriber channel has its oldest event dropped to make room,
// rather than blocking the publisher (the Executor must never stall on a
// slow consumer).
func (b *Broker) Publish(topic string, event executor.ProgressEvent) {
	b.mu.RLock()
	subs := append([]chan executor.ProgressEvent(nil), b.chans[topic]...)
	b.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
				logger.Warning("pubsub: dropping event for topic %s: subscriber channel full", topic)
			}
		}
	}
}

// CleanupTopic closes and removes every subscriber channel for topic.
// The Executor's retention sweep does not call it.
func (b *Broker) CleanupTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.chans[topic] {
		close(ch)
	}
	delete(b.chans, topic)
}
