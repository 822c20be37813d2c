package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// New builds the Fiber app and mounts the chatbot routes.
func New(controller IChatbotController) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	controller.RegisterRoutes(app)
	return app
}

// Listen blocks serving HTTP on addr.
func Listen(app *fiber.App, addr string) error {
	log.Info().Str("addr", addr).Msg("http server listening")
	return app.Listen(addr)
}
