package delivery

import (
	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse - стандартный формат ошибки
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondWithError - вспомогательная функция для отправки ошибок
func respondWithError(c *fiber.Ctx, status int, message string, details ...string) error {
	resp := ErrorResponse{
		Error: message,
	}
	if len(details) > 0 {
		resp.Details = details[0]
	}
	return c.Status(status).JSON(resp)
}

// respondBadRequest - ошибка валидации (400)
func respondBadRequest(c *fiber.Ctx, message string) error {
	return respondWithError(c, fiber.StatusBadRequest, message)
}

// respondDomainError - ошибка формы входа с подходящим статусом
func respondDomainError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	return respondWithError(c, status, messageForError(err), err.Error())
}

// respondOK - успешный ответ (200)
func respondOK(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// respondHTML - рендер templ компонента
func respondHTML(c *fiber.Ctx, status int, component templ.Component) error {
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}
