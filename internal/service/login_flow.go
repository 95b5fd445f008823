package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"storefront/internal/domain"
)

// LoginFlowConfig - параметры формы входа
type LoginFlowConfig struct {
	// ResendCooldown - сколько тиков ждать до повторной отправки
	ResendCooldown int
	// Tick - длительность одного тика обратного отсчета
	Tick time.Duration
}

// DefaultLoginFlowConfig - 30 секунд с шагом в одну секунду
func DefaultLoginFlowConfig() LoginFlowConfig {
	return LoginFlowConfig{
		ResendCooldown: domain.DefaultResendCooldown,
		Tick:           time.Second,
	}
}

// LoginFlow - двухшаговая форма входа: телефон, затем OTP.
// Методы безопасны для конкурентного вызова. Пока идет запрос к шлюзу,
// флаг busy отклоняет остальные отправки формы.
type LoginFlow struct {
	mu      sync.Mutex
	gateway OTPGateway
	cfg     LoginFlowConfig

	phase    domain.Phase
	phone    string
	otp      string
	cooldown int
	busy     bool
	verified bool
	closed   bool

	timer *cooldownTimer
}

// NewLoginFlow создает форму в состоянии ввода телефона
func NewLoginFlow(gateway OTPGateway, cfg LoginFlowConfig) *LoginFlow {
	return &LoginFlow{
		gateway: gateway,
		cfg:     cfg,
		phase:   domain.PhasePhone,
	}
}

// SetPhone обновляет номер по мере ввода
func (f *LoginFlow) SetPhone(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFlowClosed
	}
	if f.phase != domain.PhasePhone {
		return domain.ErrWrongPhase
	}

	f.phone = domain.SanitizePhone(raw)
	return nil
}

// SetOTP обновляет код по мере ввода
func (f *LoginFlow) SetOTP(raw string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return domain.ErrFlowClosed
	}
	if f.phase != domain.PhaseOTP {
		return domain.ErrWrongPhase
	}

	f.otp = domain.SanitizeOTP(raw)
	f.verified = false
	return nil
}

// SubmitPhone отправляет OTP на введенный номер и переводит форму на шаг ввода кода
func (f *LoginFlow) SubmitPhone(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guardLocked(domain.PhasePhone); err != nil {
		f.mu.Unlock()
		return err
	}
	if len(f.phone) != domain.PhoneLength {
		f.mu.Unlock()
		return domain.ErrPhoneIncomplete
	}
	phone := f.phone
	f.busy = true
	f.mu.Unlock()

	err := f.gateway.SendOTP(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.closed {
		return domain.ErrFlowClosed
	}
	if err != nil {
		return fmt.Errorf("failed to send OTP: %w", err)
	}

	f.phase = domain.PhaseOTP
	f.otp = ""
	f.verified = false
	f.startCooldownLocked()

	log.Printf("Login flow moved to OTP entry for %s", domain.MaskPhone(phone))
	return nil
}

// SubmitOTP проверяет введенный код.
// Успешная проверка состояние формы не меняет, только выставляет verified.
func (f *LoginFlow) SubmitOTP(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guardLocked(domain.PhaseOTP); err != nil {
		f.mu.Unlock()
		return err
	}
	if len(f.otp) != domain.OTPLength {
		f.mu.Unlock()
		return domain.ErrOTPIncomplete
	}
	phone, code := f.phone, f.otp
	f.busy = true
	f.mu.Unlock()

	err := f.gateway.VerifyOTP(ctx, phone, code)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.closed {
		return domain.ErrFlowClosed
	}
	if err != nil {
		return fmt.Errorf("failed to verify OTP: %w", err)
	}

	f.verified = true
	log.Printf("OTP verified for %s", domain.MaskPhone(phone))
	return nil
}

// Resend повторно отправляет код после окончания обратного отсчета
func (f *LoginFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if err := f.guardLocked(domain.PhaseOTP); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.cooldown > 0 {
		f.mu.Unlock()
		return domain.ErrCooldownActive
	}
	phone := f.phone
	f.otp = ""
	f.verified = false
	f.busy = true
	f.mu.Unlock()

	err := f.gateway.SendOTP(ctx, phone)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false

	if f.closed {
		return domain.ErrFlowClosed
	}
	if err != nil {
		return fmt.Errorf("failed to resend OTP: %w", err)
	}

	f.startCooldownLocked()
	log.Printf("OTP resent to %s", domain.MaskPhone(phone))
	return nil
}

// ChangeNumber возвращает форму к вводу телефона. Введенный номер сохраняется.
func (f *LoginFlow) ChangeNumber() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.guardLocked(domain.PhaseOTP); err != nil {
		return err
	}

	f.stopCooldownLocked()
	f.forgetCodeLocked()
	f.cooldown = 0
	f.otp = ""
	f.verified = false
	f.phase = domain.PhasePhone
	return nil
}

// Close освобождает таймер обратного отсчета и отзывает выданный код.
// Повторный вызов безопасен.
func (f *LoginFlow) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.stopCooldownLocked()
	if f.phase == domain.PhaseOTP && !f.verified {
		f.forgetCodeLocked()
	}
	f.closed = true
}

// State возвращает снимок состояния
func (f *LoginFlow) State() domain.LoginState {
	f.mu.Lock()
	defer f.mu.Unlock()

	idle := !f.busy && !f.closed
	inOTP := f.phase == domain.PhaseOTP

	return domain.LoginState{
		Phase:     f.phase,
		Phone:     f.phone,
		OTPLength: len(f.otp),
		Cooldown:  f.cooldown,
		Busy:      f.busy,
		Verified:  f.verified,

		CanSubmitPhone:  idle && !inOTP && len(f.phone) == domain.PhoneLength,
		CanSubmitOTP:    idle && inOTP && len(f.otp) == domain.OTPLength,
		CanResend:       idle && inOTP && f.cooldown == 0,
		CanChangeNumber: idle && inOTP,
	}
}

func (f *LoginFlow) guardLocked(phase domain.Phase) error {
	if f.closed {
		return domain.ErrFlowClosed
	}
	if f.phase != phase {
		return domain.ErrWrongPhase
	}
	if f.busy {
		return domain.ErrBusy
	}
	return nil
}

func (f *LoginFlow) startCooldownLocked() {
	f.stopCooldownLocked()
	f.cooldown = f.cfg.ResendCooldown
	if f.cooldown <= 0 {
		f.cooldown = 0
		return
	}

	f.timer = startCooldownTimer(f.cfg.Tick, f.tick)
}

func (f *LoginFlow) stopCooldownLocked() {
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *LoginFlow) forgetCodeLocked() {
	if fg, ok := f.gateway.(CodeForgetter); ok {
		fg.Forget(f.phone)
	}
}

// tick уменьшает отсчет на единицу. Тики от уже освобожденного таймера игнорируются.
func (f *LoginFlow) tick(t *cooldownTimer) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != t || f.phase != domain.PhaseOTP {
		return false
	}

	if f.cooldown > 0 {
		f.cooldown--
	}
	if f.cooldown == 0 {
		f.timer = nil
		return false
	}
	return true
}
