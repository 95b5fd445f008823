package service

import (
	"sync"
	"time"
)

// cooldownTimer - тикер обратного отсчета, принадлежащий одной форме входа.
// Горутина живет, пока onTick возвращает true или пока не вызван Stop.
type cooldownTimer struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startCooldownTimer(tick time.Duration, onTick func(*cooldownTimer) bool) *cooldownTimer {
	if tick <= 0 {
		tick = time.Second
	}

	t := &cooldownTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(tick, onTick)
	return t
}

func (t *cooldownTimer) run(tick time.Duration, onTick func(*cooldownTimer) bool) {
	defer close(t.done)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if !onTick(t) {
				return
			}
		}
	}
}

// Stop не ждет завершения горутины: onTick может ждать мьютекс вызывающего.
func (t *cooldownTimer) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Done закрывается после выхода горутины
func (t *cooldownTimer) Done() <-chan struct{} {
	return t.done
}
