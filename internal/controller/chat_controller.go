package controller

import (
	"errors"

	"docsearch-console/internal/dto"
	"docsearch-console/internal/pkg/serverutils"
	"docsearch-console/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	GetAllConversations(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatbotService
	auth    fiber.Handler
}

type historyQuery struct {
	ConversationId string `query:"conversation_id" validate:"required"`
	Limit          int    `query:"limit" validate:"gte=0"`
}

func NewChatController(service service.IChatbotService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

// Responses are the bare DTOs, not the success envelope, to match the
// document search backend's wire format.
func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(c.auth)
	h.Post("/", c.SendChat)
	h.Get("/conversations", c.GetAllConversations)
	h.Delete("/conversations/:id", c.DeleteConversation)
	h.Get("/history", c.GetChatHistory)
}

func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.Context(), userId, &req)
	if errors.Is(err, service.ErrNoProvider) {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) GetAllConversations(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	res, err := c.service.GetAllConversations(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) GetChatHistory(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	var q historyQuery
	if err := ctx.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if err := serverutils.ValidateRequest(q); err != nil {
		return err
	}

	res, err := c.service.GetChatHistory(ctx.Context(), userId, q.ConversationId, q.Limit)
	if errors.Is(err, service.ErrConversationNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) DeleteConversation(ctx *fiber.Ctx) error {
	userId := ctx.Locals("user_id").(string)

	err := c.service.DeleteConversation(ctx.Context(), userId, ctx.Params("id"))
	if errors.Is(err, service.ErrConversationNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Conversation deleted", nil))
}
