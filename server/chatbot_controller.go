package server

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ChatResponder is the orchestrator surface the controller needs. It never
// returns an error: failures are already converted to an apology reply.
type ChatResponder interface {
	Respond(ctx context.Context, query string) string
}

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatbotController struct {
	responder ChatResponder
	validate  *validator.Validate
}

func NewChatbotController(responder ChatResponder) IChatbotController {
	return &chatbotController{
		responder: responder,
		validate:  validator.New(),
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	r.Post("/chatbot/chat", c.Chat)
}

// Chat validates the request before the orchestrator runs: a missing or
// empty query is rejected here and never reaches a model call.
func (c *chatbotController) Chat(ctx *fiber.Ctx) error {
	var req ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "invalid request body"})
	}

	req.Query = strings.TrimSpace(req.Query)
	if err := c.validate.Struct(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: "query is required"})
	}

	reply := c.responder.Respond(ctx.UserContext(), req.Query)
	return ctx.JSON(ChatResponse{Response: reply})
}
