package events

import (
	"context"
	"log/slog"
	"sync"
)

// Bus in-process очередь событий с ограниченным буфером.
//
// При переполнении событие отбрасывается: в буфере уже есть событие, обработка
// которого перечитает хранилище и увидит эту мутацию.
type Bus struct {
	ch     chan Event
	log    *slog.Logger
	mu     sync.RWMutex
	closed bool
}

// NewBus создаёт шину с буфером size.
func NewBus(size int, log *slog.Logger) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{
		ch:  make(chan Event, size),
		log: log,
	}
}

// Publish никогда не блокирует вызывающего.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	select {
	case b.ch <- e:
	default:
		b.log.Debug("event bus full, refresh already pending", slog.String("kind", string(e.Kind)))
	}
	return nil
}

// Events канал для потребителя. Закрывается вызовом Close.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close закрывает шину, последующие Publish игнорируются.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.ch)
	}
}
