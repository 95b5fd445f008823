package delivery

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/view"
)

// LoginHandler обслуживает форму входа по телефону и OTP.
// Состояние формы живет на сервере, браузер держит только id сессии в cookie.
type LoginHandler struct {
	flows        *service.FlowStore
	cookieName   string
	cookieSecure bool
	sessionTTL   time.Duration
}

// NewLoginHandler создает handler формы входа
func NewLoginHandler(flows *service.FlowStore, cookieName string, cookieSecure bool, sessionTTL time.Duration) *LoginHandler {
	return &LoginHandler{
		flows:        flows,
		cookieName:   cookieName,
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

// flow находит форму по cookie или заводит новую сессию
func (h *LoginHandler) flow(c *fiber.Ctx) *service.LoginFlow {
	id, flow := h.flows.GetOrCreate(c.Cookies(h.cookieName))
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		Secure:   h.cookieSecure,
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return flow
}

// ============================================
// HTML форма
// ============================================

// Page - GET /login
func (h *LoginHandler) Page(c *fiber.Ctx) error {
	return h.renderPage(c, h.flow(c), fiber.StatusOK, "")
}

// PhoneForm - POST /login/phone
func (h *LoginHandler) PhoneForm(c *fiber.Ctx) error {
	flow := h.flow(c)

	var req domain.LoginPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Failed to parse phone form: %v", err)
		return h.renderPage(c, flow, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := flow.SetPhone(req.Phone); err != nil {
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}
	if err := flow.SubmitPhone(c.UserContext()); err != nil {
		log.Printf("Send OTP failed: %v", err)
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

// OTPForm - POST /login/otp
func (h *LoginHandler) OTPForm(c *fiber.Ctx) error {
	flow := h.flow(c)

	var req domain.LoginOTPRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Failed to parse OTP form: %v", err)
		return h.renderPage(c, flow, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := flow.SetOTP(req.Code); err != nil {
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}
	if err := flow.SubmitOTP(c.UserContext()); err != nil {
		log.Printf("Verify OTP failed: %v", err)
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}

// ResendForm - POST /login/resend
func (h *LoginHandler) ResendForm(c *fiber.Ctx) error {
	flow := h.flow(c)
	if err := flow.Resend(c.UserContext()); err != nil {
		log.Printf("Resend OTP failed: %v", err)
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// ChangeForm - POST /login/change
func (h *LoginHandler) ChangeForm(c *fiber.Ctx) error {
	flow := h.flow(c)
	if err := flow.ChangeNumber(); err != nil {
		return h.renderPage(c, flow, statusForError(err), messageForError(err))
	}
	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (h *LoginHandler) renderPage(c *fiber.Ctx, flow *service.LoginFlow, status int, errMsg string) error {
	v := view.LoginView{State: flow.State(), Error: errMsg}
	if errMsg == "" && v.State.Verified {
		v.Notice = "Phone number verified"
	}
	return respondHTML(c, status, view.LoginPage(v))
}

// ============================================
// JSON API
// ============================================

// State - GET /api/login/state
func (h *LoginHandler) State(c *fiber.Ctx) error {
	return h.respondState(c, h.flow(c), "")
}

// Input - PATCH /api/login/input, обновление полей по мере ввода
func (h *LoginHandler) Input(c *fiber.Ctx) error {
	flow := h.flow(c)

	var req domain.LoginInputRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Failed to parse login input: %v", err)
		return respondBadRequest(c, "Invalid request body")
	}

	if req.Phone != nil {
		if err := flow.SetPhone(*req.Phone); err != nil {
			return respondDomainError(c, err)
		}
	}
	if req.Code != nil {
		if err := flow.SetOTP(*req.Code); err != nil {
			return respondDomainError(c, err)
		}
	}

	return h.respondState(c, flow, "")
}

// SendOTP - POST /api/login/phone
func (h *LoginHandler) SendOTP(c *fiber.Ctx) error {
	flow := h.flow(c)

	var req domain.LoginPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Failed to parse SendOTP request: %v", err)
		return respondBadRequest(c, "Invalid request body")
	}

	if req.Phone != "" {
		if err := flow.SetPhone(req.Phone); err != nil {
			return respondDomainError(c, err)
		}
	}
	if err := flow.SubmitPhone(c.UserContext()); err != nil {
		log.Printf("Send OTP failed: %v", err)
		return respondDomainError(c, err)
	}

	return h.respondState(c, flow, "OTP code sent successfully")
}

// VerifyOTP - POST /api/login/otp
func (h *LoginHandler) VerifyOTP(c *fiber.Ctx) error {
	flow := h.flow(c)

	var req domain.LoginOTPRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Failed to parse VerifyOTP request: %v", err)
		return respondBadRequest(c, "Invalid request body")
	}

	if req.Code != "" {
		if err := flow.SetOTP(req.Code); err != nil {
			return respondDomainError(c, err)
		}
	}
	if err := flow.SubmitOTP(c.UserContext()); err != nil {
		log.Printf("Verify OTP failed: %v", err)
		return respondDomainError(c, err)
	}

	return h.respondState(c, flow, "OTP code verified")
}

// Resend - POST /api/login/resend
func (h *LoginHandler) Resend(c *fiber.Ctx) error {
	flow := h.flow(c)
	if err := flow.Resend(c.UserContext()); err != nil {
		log.Printf("Resend OTP failed: %v", err)
		return respondDomainError(c, err)
	}
	return h.respondState(c, flow, "OTP code sent successfully")
}

// ChangeNumber - POST /api/login/change
func (h *LoginHandler) ChangeNumber(c *fiber.Ctx) error {
	flow := h.flow(c)
	if err := flow.ChangeNumber(); err != nil {
		return respondDomainError(c, err)
	}
	return h.respondState(c, flow, "")
}

// Reset - DELETE /api/login, закрывает форму и освобождает ее таймер
func (h *LoginHandler) Reset(c *fiber.Ctx) error {
	id := c.Cookies(h.cookieName)
	if id == "" || !h.flows.Delete(id) {
		return respondDomainError(c, domain.ErrSessionNotFound)
	}

	c.ClearCookie(h.cookieName)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *LoginHandler) respondState(c *fiber.Ctx, flow *service.LoginFlow, message string) error {
	return respondOK(c, domain.LoginStateResponse{
		Success: true,
		Message: message,
		State:   flow.State(),
	})
}
