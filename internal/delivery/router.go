package delivery

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp собирает fiber приложение со всеми маршрутами
func NewApp(pages *PageHandler, login *LoginHandler, allowedOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(ErrorResponse{
				Error: err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
	}))

	app.Get("/", pages.Landing)
	app.Get("/healthz", pages.Health)

	// Форма входа без JS
	app.Get("/login", login.Page)
	app.Post("/login/phone", login.PhoneForm)
	app.Post("/login/otp", login.OTPForm)
	app.Post("/login/resend", login.ResendForm)
	app.Post("/login/change", login.ChangeForm)

	// JSON API той же формы
	api := app.Group("/api/login")
	api.Get("/state", login.State)
	api.Patch("/input", login.Input)
	api.Post("/phone", login.SendOTP)
	api.Post("/otp", login.VerifyOTP)
	api.Post("/resend", login.Resend)
	api.Post("/change", login.ChangeNumber)
	app.Delete("/api/login", login.Reset)

	return app
}
