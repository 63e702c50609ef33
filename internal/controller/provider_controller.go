package controller

import (
	"strconv"

	"docsearch-console/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IProviderController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type providerController struct {
	service service.IProviderService
	auth    fiber.Handler
}

func NewProviderController(service service.IProviderService, auth fiber.Handler) IProviderController {
	return &providerController{service: service, auth: auth}
}

func (c *providerController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/llm")
	h.Use(c.auth)
	h.Get("/providers", c.List)
}

func (c *providerController) List(ctx *fiber.Ctx) error {
	var mainSystem *bool
	if raw := ctx.Query("is_main_system"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "is_main_system must be a boolean")
		}
		mainSystem = &v
	}

	return ctx.JSON(fiber.Map{"providers": c.service.List(ctx.Context(), mainSystem)})
}
