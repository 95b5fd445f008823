package delivery

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
)

// errorStatuses - соответствие ошибок формы входа HTTP статусам
var errorStatuses = []struct {
	err    error
	status int
}{
	{domain.ErrPhoneIncomplete, fiber.StatusUnprocessableEntity},
	{domain.ErrOTPIncomplete, fiber.StatusUnprocessableEntity},
	{domain.ErrWrongPhase, fiber.StatusConflict},
	{domain.ErrBusy, fiber.StatusConflict},
	{domain.ErrFlowClosed, fiber.StatusConflict},
	{domain.ErrCooldownActive, fiber.StatusTooManyRequests},
	{domain.ErrInvalidOTP, fiber.StatusUnauthorized},
	{domain.ErrOTPExpired, fiber.StatusUnauthorized},
	{domain.ErrOTPMaxAttempts, fiber.StatusUnauthorized},
	{domain.ErrOTPNotFound, fiber.StatusUnauthorized},
	{domain.ErrSessionNotFound, fiber.StatusNotFound},
	{context.DeadlineExceeded, fiber.StatusGatewayTimeout},
}

func statusForError(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return fiber.StatusBadGateway
}

// messageForError - текст для пользователя. Детали сбоя шлюза наружу не отдаем.
func messageForError(err error) string {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.err.Error()
		}
	}
	return "OTP service is unavailable, please try again"
}
