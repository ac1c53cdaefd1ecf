package messaging

import (
	"context"
	"sync"
)

// MemoryBroker is an in-process MessageBroker used when Redis is disabled
// and in tests.
type MemoryBroker struct {
	mu       sync.RWMutex
	handlers map[string][]func([]byte) error
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: make(map[string][]func([]byte) error)}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	handlers := append([]func([]byte) error(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		msg := append([]byte(nil), payload...)
		if err := h(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, topic string, handler func([]byte) error) error {
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], handler)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBroker) Close() error {
	return nil
}
