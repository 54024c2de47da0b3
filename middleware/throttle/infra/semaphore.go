package infra

import (
	"context"

	"throttling-gateway/middleware/throttle/domain"
)

type semaphore struct {
	slots chan struct{}
}

// NewSemaphore cria um pool simples baseado em channel com capacidade `max`.
func NewSemaphore(max int) domain.SlotPool {
	return &semaphore{slots: make(chan struct{}, max)}
}

func (s *semaphore) Acquire(ctx context.Context) (func(), bool) {
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, true
	case <-ctx.Done():
		return nil, false
	}
}
