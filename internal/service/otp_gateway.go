package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"storefront/internal/domain"
)

// OTPGateway - внешний сервис отправки и проверки OTP
type OTPGateway interface {
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) error
}

// CodeForgetter - шлюз, который хранит выданные коды и умеет их отзывать.
// LoginFlow вызывает Forget, когда пользователь уходит с шага ввода OTP.
type CodeForgetter interface {
	Forget(phone string)
}

// SimulatedGateway имитирует сетевой вызов фиксированной задержкой.
// Любой вызов завершается успешно, если контекст не отменен.
type SimulatedGateway struct {
	SendDelay   time.Duration
	VerifyDelay time.Duration
}

// NewSimulatedGateway создает имитацию шлюза
func NewSimulatedGateway(sendDelay, verifyDelay time.Duration) *SimulatedGateway {
	return &SimulatedGateway{SendDelay: sendDelay, VerifyDelay: verifyDelay}
}

func (g *SimulatedGateway) SendOTP(ctx context.Context, phone string) error {
	if err := wait(ctx, g.SendDelay); err != nil {
		return err
	}
	log.Printf("Simulated OTP sent to %s", domain.MaskPhone(phone))
	return nil
}

func (g *SimulatedGateway) VerifyOTP(ctx context.Context, phone, _ string) error {
	if err := wait(ctx, g.VerifyDelay); err != nil {
		return err
	}
	log.Printf("Simulated OTP accepted for %s", domain.MaskPhone(phone))
	return nil
}

// LocalGateway генерирует настоящие коды, но вместо SMS пишет их в лог.
// Для dev окружения.
type LocalGateway struct {
	store *CodeStore
	delay time.Duration
}

// NewLocalGateway создает шлюз поверх хранилища кодов
func NewLocalGateway(store *CodeStore, delay time.Duration) *LocalGateway {
	return &LocalGateway{store: store, delay: delay}
}

func (g *LocalGateway) SendOTP(ctx context.Context, phone string) error {
	if err := wait(ctx, g.delay); err != nil {
		return err
	}

	code, err := g.store.GenerateOTP(phone)
	if err != nil {
		return fmt.Errorf("failed to generate OTP: %w", err)
	}

	// В production здесь будет отправка SMS
	log.Printf("OTP generated for %s: %s", domain.MaskPhone(phone), code)
	return nil
}

func (g *LocalGateway) VerifyOTP(ctx context.Context, phone, code string) error {
	if err := wait(ctx, g.delay); err != nil {
		return err
	}
	return g.store.VerifyOTP(phone, code)
}

// Forget отзывает код, выданный на номер
func (g *LocalGateway) Forget(phone string) {
	g.store.DeleteOTP(phone)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
