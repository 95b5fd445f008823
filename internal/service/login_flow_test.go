package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"
)

type fakeGateway struct {
	mu        sync.Mutex
	sendErr   error
	verifyErr error
	sends     []string
	verifies  []string
	forgets   []string
	block     chan struct{}
}

func (g *fakeGateway) SendOTP(ctx context.Context, phone string) error {
	if g.block != nil {
		select {
		case <-g.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sends = append(g.sends, phone)
	return g.sendErr
}

func (g *fakeGateway) VerifyOTP(_ context.Context, phone, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifies = append(g.verifies, phone+":"+code)
	return g.verifyErr
}

func (g *fakeGateway) Forget(phone string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.forgets = append(g.forgets, phone)
}

func (g *fakeGateway) forgetCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.forgets)
}

func (g *fakeGateway) sendCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sends)
}

// slowConfig не дает отсчету сдвинуться за время теста
func slowConfig() LoginFlowConfig {
	return LoginFlowConfig{ResendCooldown: domain.DefaultResendCooldown, Tick: time.Hour}
}

func newOTPFlow(t *testing.T, gw OTPGateway, cfg LoginFlowConfig) *LoginFlow {
	t.Helper()
	flow := NewLoginFlow(gw, cfg)
	t.Cleanup(flow.Close)
	if err := flow.SetPhone("9876543210"); err != nil {
		t.Fatalf("SetPhone() = %v", err)
	}
	if err := flow.SubmitPhone(context.Background()); err != nil {
		t.Fatalf("SubmitPhone() = %v", err)
	}
	return flow
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestLoginFlowInitialState(t *testing.T) {
	flow := NewLoginFlow(&fakeGateway{}, DefaultLoginFlowConfig())
	defer flow.Close()

	st := flow.State()
	if st.Phase != domain.PhasePhone {
		t.Fatalf("phase = %q, want %q", st.Phase, domain.PhasePhone)
	}
	if st.Phone != "" || st.OTPLength != 0 || st.Cooldown != 0 || st.Busy {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st.CanSubmitPhone || st.CanResend || st.CanChangeNumber {
		t.Fatalf("no control should be enabled initially: %+v", st)
	}
}

func TestLoginFlowSetPhoneSanitizes(t *testing.T) {
	flow := NewLoginFlow(&fakeGateway{}, DefaultLoginFlowConfig())
	defer flow.Close()

	if err := flow.SetPhone("(987) 654-32-10 99"); err != nil {
		t.Fatalf("SetPhone() = %v", err)
	}
	st := flow.State()
	if st.Phone != "9876543210" {
		t.Fatalf("phone = %q", st.Phone)
	}
	if !st.CanSubmitPhone {
		t.Fatal("expected submit to be enabled with 10 digits")
	}
}

func TestLoginFlowSubmitPhoneRequiresTenDigits(t *testing.T) {
	gw := &fakeGateway{}
	flow := NewLoginFlow(gw, DefaultLoginFlowConfig())
	defer flow.Close()

	_ = flow.SetPhone("987654321")
	err := flow.SubmitPhone(context.Background())
	if !errors.Is(err, domain.ErrPhoneIncomplete) {
		t.Fatalf("SubmitPhone() = %v, want ErrPhoneIncomplete", err)
	}
	if st := flow.State(); st.Phase != domain.PhasePhone || st.Busy {
		t.Fatalf("state changed on rejected submit: %+v", st)
	}
	if gw.sendCount() != 0 {
		t.Fatal("gateway must not be called for incomplete phone")
	}
}

func TestLoginFlowSubmitPhoneEntersOTP(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	st := flow.State()
	if st.Phase != domain.PhaseOTP {
		t.Fatalf("phase = %q, want %q", st.Phase, domain.PhaseOTP)
	}
	if st.Cooldown != domain.DefaultResendCooldown {
		t.Fatalf("cooldown = %d, want %d", st.Cooldown, domain.DefaultResendCooldown)
	}
	if st.Busy {
		t.Fatal("busy must be cleared after send")
	}
	if st.CanResend {
		t.Fatal("resend must be disabled during cooldown")
	}
	if !st.CanChangeNumber {
		t.Fatal("change number must be enabled")
	}
	if len(gw.sends) != 1 || gw.sends[0] != "9876543210" {
		t.Fatalf("sends = %v", gw.sends)
	}
}

func TestLoginFlowSubmitPhoneGatewayFailure(t *testing.T) {
	gw := &fakeGateway{sendErr: errors.New("sms provider down")}
	flow := NewLoginFlow(gw, slowConfig())
	defer flow.Close()

	_ = flow.SetPhone("9876543210")
	if err := flow.SubmitPhone(context.Background()); err == nil {
		t.Fatal("expected error from failing gateway")
	}
	st := flow.State()
	if st.Phase != domain.PhasePhone || st.Busy || st.Cooldown != 0 {
		t.Fatalf("unexpected state after failure: %+v", st)
	}
}

func TestLoginFlowBusyRejectsConcurrentSubmit(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	flow := NewLoginFlow(gw, slowConfig())
	defer flow.Close()
	_ = flow.SetPhone("9876543210")

	done := make(chan error, 1)
	go func() { done <- flow.SubmitPhone(context.Background()) }()

	waitFor(t, func() bool { return flow.State().Busy })

	st := flow.State()
	if st.CanSubmitPhone {
		t.Fatal("submit must be disabled while busy")
	}
	if err := flow.SubmitPhone(context.Background()); !errors.Is(err, domain.ErrBusy) {
		t.Fatalf("second SubmitPhone() = %v, want ErrBusy", err)
	}

	close(gw.block)
	if err := <-done; err != nil {
		t.Fatalf("SubmitPhone() = %v", err)
	}
	if flow.State().Phase != domain.PhaseOTP {
		t.Fatal("expected OTP phase after send")
	}
}

func TestLoginFlowSubmitOTP(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	if err := flow.SetOTP("12345"); err != nil {
		t.Fatalf("SetOTP() = %v", err)
	}
	if err := flow.SubmitOTP(context.Background()); !errors.Is(err, domain.ErrOTPIncomplete) {
		t.Fatalf("SubmitOTP() = %v, want ErrOTPIncomplete", err)
	}

	_ = flow.SetOTP("12-34-56-7")
	if err := flow.SubmitOTP(context.Background()); err != nil {
		t.Fatalf("SubmitOTP() = %v", err)
	}

	st := flow.State()
	if st.Phase != domain.PhaseOTP || !st.Verified || st.Busy {
		t.Fatalf("unexpected state after verify: %+v", st)
	}
	if len(gw.verifies) != 1 || gw.verifies[0] != "9876543210:123456" {
		t.Fatalf("verifies = %v", gw.verifies)
	}
}

func TestLoginFlowSubmitOTPFailureKeepsCode(t *testing.T) {
	gw := &fakeGateway{verifyErr: domain.ErrInvalidOTP}
	flow := newOTPFlow(t, gw, slowConfig())

	_ = flow.SetOTP("000000")
	err := flow.SubmitOTP(context.Background())
	if !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("SubmitOTP() = %v, want ErrInvalidOTP", err)
	}
	st := flow.State()
	if st.Verified || st.Busy || st.OTPLength != 6 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestLoginFlowWrongPhase(t *testing.T) {
	flow := NewLoginFlow(&fakeGateway{}, slowConfig())
	defer flow.Close()

	if err := flow.SetOTP("123456"); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("SetOTP() = %v", err)
	}
	if err := flow.Resend(context.Background()); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("Resend() = %v", err)
	}
	if err := flow.ChangeNumber(); !errors.Is(err, domain.ErrWrongPhase) {
		t.Fatalf("ChangeNumber() = %v", err)
	}
}

func TestLoginFlowResendDisabledDuringCooldown(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	if err := flow.Resend(context.Background()); !errors.Is(err, domain.ErrCooldownActive) {
		t.Fatalf("Resend() = %v, want ErrCooldownActive", err)
	}
	if gw.sendCount() != 1 {
		t.Fatalf("sends = %d, want 1", gw.sendCount())
	}
}

func TestLoginFlowCooldownCountsDownToZero(t *testing.T) {
	cfg := LoginFlowConfig{ResendCooldown: 3, Tick: 2 * time.Millisecond}
	flow := newOTPFlow(t, &fakeGateway{}, cfg)

	prev := flow.State().Cooldown
	if prev < 1 || prev > 3 {
		t.Fatalf("cooldown = %d, want it to start from 3", prev)
	}

	waitFor(t, func() bool {
		st := flow.State()
		if st.Cooldown < 0 || st.Cooldown > prev {
			t.Fatalf("cooldown went from %d to %d", prev, st.Cooldown)
		}
		if st.Cooldown > 0 && st.CanResend {
			t.Fatalf("resend enabled with cooldown %d", st.Cooldown)
		}
		prev = st.Cooldown
		return st.Cooldown == 0
	})

	st := flow.State()
	if !st.CanResend {
		t.Fatal("resend must be enabled once cooldown reaches zero")
	}

	flow.mu.Lock()
	timer := flow.timer
	flow.mu.Unlock()
	if timer != nil {
		t.Fatal("timer must be released when cooldown reaches zero")
	}

	time.Sleep(10 * time.Millisecond)
	if got := flow.State().Cooldown; got != 0 {
		t.Fatalf("cooldown = %d after reaching zero", got)
	}
}

func TestLoginFlowResendRestartsCooldown(t *testing.T) {
	gw := &fakeGateway{}
	cfg := LoginFlowConfig{ResendCooldown: 2, Tick: 20 * time.Millisecond}
	flow := newOTPFlow(t, gw, cfg)

	waitFor(t, func() bool { return flow.State().CanResend })

	_ = flow.SetOTP("123")
	if err := flow.Resend(context.Background()); err != nil {
		t.Fatalf("Resend() = %v", err)
	}
	st := flow.State()
	if st.OTPLength != 0 {
		t.Fatalf("otp length = %d, want 0", st.OTPLength)
	}
	if st.Cooldown == 0 || st.CanResend {
		t.Fatalf("cooldown must restart after resend: %+v", st)
	}
	if gw.sendCount() != 2 {
		t.Fatalf("sends = %d, want 2", gw.sendCount())
	}
}

func TestLoginFlowChangeNumber(t *testing.T) {
	flow := newOTPFlow(t, &fakeGateway{}, slowConfig())
	_ = flow.SetOTP("123456")

	flow.mu.Lock()
	timer := flow.timer
	flow.mu.Unlock()

	if err := flow.ChangeNumber(); err != nil {
		t.Fatalf("ChangeNumber() = %v", err)
	}

	st := flow.State()
	if st.Phase != domain.PhasePhone || st.OTPLength != 0 || st.Cooldown != 0 {
		t.Fatalf("unexpected state after change number: %+v", st)
	}
	if st.Phone != "9876543210" {
		t.Fatalf("phone = %q, want it kept", st.Phone)
	}

	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("cooldown timer still running after change number")
	}
}

func TestLoginFlowCloseReleasesTimer(t *testing.T) {
	cfg := LoginFlowConfig{ResendCooldown: 1000, Tick: time.Millisecond}
	flow := newOTPFlow(t, &fakeGateway{}, cfg)

	flow.mu.Lock()
	timer := flow.timer
	flow.mu.Unlock()

	flow.Close()
	select {
	case <-timer.Done():
	case <-time.After(time.Second):
		t.Fatal("cooldown timer still running after close")
	}

	frozen := flow.State().Cooldown
	time.Sleep(5 * time.Millisecond)
	if got := flow.State().Cooldown; got != frozen {
		t.Fatalf("cooldown moved after close: %d -> %d", frozen, got)
	}
	if err := flow.ChangeNumber(); !errors.Is(err, domain.ErrFlowClosed) {
		t.Fatalf("ChangeNumber() = %v, want ErrFlowClosed", err)
	}
	flow.Close()
}

func TestLoginFlowCloseWhileBusy(t *testing.T) {
	gw := &fakeGateway{block: make(chan struct{})}
	flow := NewLoginFlow(gw, slowConfig())
	_ = flow.SetPhone("9876543210")

	done := make(chan error, 1)
	go func() { done <- flow.SubmitPhone(context.Background()) }()
	waitFor(t, func() bool { return flow.State().Busy })

	flow.Close()
	close(gw.block)

	if err := <-done; !errors.Is(err, domain.ErrFlowClosed) {
		t.Fatalf("SubmitPhone() = %v, want ErrFlowClosed", err)
	}
	flow.mu.Lock()
	defer flow.mu.Unlock()
	if flow.timer != nil {
		t.Fatal("closed flow must not start a cooldown timer")
	}
}

func TestLoginFlowChangeNumberForgetsCode(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	if err := flow.ChangeNumber(); err != nil {
		t.Fatalf("ChangeNumber() = %v", err)
	}
	if n := gw.forgetCount(); n != 1 {
		t.Fatalf("forgets = %d, want 1", n)
	}
	if gw.forgets[0] != "9876543210" {
		t.Fatalf("forgot %q, want 9876543210", gw.forgets[0])
	}

	// Номер уже на шаге ввода телефона, отзывать нечего
	flow.Close()
	if n := gw.forgetCount(); n != 1 {
		t.Fatalf("forgets after Close = %d, want 1", n)
	}
}

func TestLoginFlowCloseForgetsPendingCode(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	flow.Close()
	flow.Close()
	if n := gw.forgetCount(); n != 1 {
		t.Fatalf("forgets = %d, want 1", n)
	}
}

func TestLoginFlowCloseKeepsVerifiedCode(t *testing.T) {
	gw := &fakeGateway{}
	flow := newOTPFlow(t, gw, slowConfig())

	_ = flow.SetOTP("123456")
	if err := flow.SubmitOTP(context.Background()); err != nil {
		t.Fatalf("SubmitOTP() = %v", err)
	}
	flow.Close()
	if n := gw.forgetCount(); n != 0 {
		t.Fatalf("forgets = %d, want 0", n)
	}
}
