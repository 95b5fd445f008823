package service

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"storefront/internal/domain"
)

// CodeStore хранилище OTP кодов в памяти
type CodeStore struct {
	mu          sync.RWMutex
	codes       map[string]*CodeData // ключ - номер телефона
	ttl         time.Duration
	maxAttempts int
	stop        chan struct{}
	stopOnce    sync.Once
}

// CodeData информация об OTP коде
type CodeData struct {
	Code      string
	ExpiresAt time.Time
	Attempts  int
}

// NewCodeStore создает новое хранилище OTP
func NewCodeStore(ttl time.Duration, maxAttempts int) *CodeStore {
	store := &CodeStore{
		codes:       make(map[string]*CodeData),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		stop:        make(chan struct{}),
	}

	// Очистка истекших кодов раз в ttl
	go store.cleanupExpired(ttl)

	return store
}

// GenerateOTP генерирует код и заменяет предыдущий для этого номера
func (s *CodeStore) GenerateOTP(phone string) (string, error) {
	code, err := generateRandomCode(domain.OTPLength)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[phone] = &CodeData{
		Code:      code,
		ExpiresAt: time.Now().Add(s.ttl),
	}

	return code, nil
}

// VerifyOTP проверяет OTP код. После успешной проверки код удаляется.
func (s *CodeStore) VerifyOTP(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, exists := s.codes[phone]
	if !exists {
		return domain.ErrOTPNotFound
	}

	if time.Now().After(data.ExpiresAt) {
		delete(s.codes, phone)
		return domain.ErrOTPExpired
	}

	if data.Attempts >= s.maxAttempts {
		delete(s.codes, phone)
		return domain.ErrOTPMaxAttempts
	}

	if data.Code != code {
		data.Attempts++
		return domain.ErrInvalidOTP
	}

	delete(s.codes, phone)
	return nil
}

// DeleteOTP удаляет OTP код для номера
func (s *CodeStore) DeleteOTP(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, phone)
}

// Close останавливает фоновую очистку
func (s *CodeStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *CodeStore) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		now := time.Now()
		for phone, data := range s.codes {
			if now.After(data.ExpiresAt) {
				delete(s.codes, phone)
			}
		}
		s.mu.Unlock()
	}
}

// generateRandomCode генерирует случайный числовой код заданной длины
func generateRandomCode(length int) (string, error) {
	const digits = "0123456789"
	code := make([]byte, length)

	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			return "", err
		}
		code[i] = digits[num.Int64()]
	}

	return string(code), nil
}
