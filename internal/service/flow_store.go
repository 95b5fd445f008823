package service

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/domain"
)

// FlowStore хранит формы входа по идентификатору сессии
type FlowStore struct {
	mu      sync.Mutex
	flows   map[string]*flowEntry // ключ - id сессии из cookie
	newFlow func() *LoginFlow
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type flowEntry struct {
	flow      *LoginFlow
	expiresAt time.Time
}

// NewFlowStore создает хранилище. Сессия живет ttl с момента последнего обращения.
func NewFlowStore(newFlow func() *LoginFlow, ttl time.Duration) *FlowStore {
	store := &FlowStore{
		flows:   make(map[string]*flowEntry),
		newFlow: newFlow,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	interval := ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	go store.cleanupExpired(interval)

	return store
}

// Create заводит новую сессию
func (s *FlowStore) Create() (string, *LoginFlow) {
	id := uuid.NewString()
	flow := s.newFlow()

	s.mu.Lock()
	s.flows[id] = &flowEntry{flow: flow, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return id, flow
}

// Get возвращает форму и продлевает сессию
func (s *FlowStore) Get(id string) (*LoginFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.flows[id]
	if !exists {
		return nil, domain.ErrSessionNotFound
	}

	if time.Now().After(entry.expiresAt) {
		delete(s.flows, id)
		entry.flow.Close()
		return nil, domain.ErrSessionNotFound
	}

	entry.expiresAt = time.Now().Add(s.ttl)
	return entry.flow, nil
}

// GetOrCreate возвращает существующую сессию или заводит новую
func (s *FlowStore) GetOrCreate(id string) (string, *LoginFlow) {
	if id != "" {
		if flow, err := s.Get(id); err == nil {
			return id, flow
		}
	}
	return s.Create()
}

// Delete закрывает форму и удаляет сессию
func (s *FlowStore) Delete(id string) bool {
	s.mu.Lock()
	entry, exists := s.flows[id]
	delete(s.flows, id)
	s.mu.Unlock()

	if exists {
		entry.flow.Close()
	}
	return exists
}

// Len - количество живых сессий
func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

// Close останавливает очистку и закрывает все формы
func (s *FlowStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })

	s.mu.Lock()
	flows := s.flows
	s.flows = make(map[string]*flowEntry)
	s.mu.Unlock()

	for _, entry := range flows {
		entry.flow.Close()
	}
}

// cleanupExpired периодически закрывает истекшие сессии
func (s *FlowStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		if n := s.evictExpired(time.Now()); n > 0 {
			log.Printf("Login sessions expired: %d, active: %d", n, s.Len())
		}
	}
}

func (s *FlowStore) evictExpired(now time.Time) int {
	var expired []*LoginFlow

	s.mu.Lock()
	for id, entry := range s.flows {
		if now.After(entry.expiresAt) {
			expired = append(expired, entry.flow)
			delete(s.flows, id)
		}
	}
	s.mu.Unlock()

	for _, flow := range expired {
		flow.Close()
	}
	return len(expired)
}
