package controller

import (
	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/pkg/serverutils"
	"subsidy-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type sessionController struct {
	service   service.ISessionService
	jwtSecret string
}

func NewSessionController(service service.ISessionService, jwtSecret string) ISessionController {
	return &sessionController{service: service, jwtSecret: jwtSecret}
}

func (c *sessionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1/sessions")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get(":userId", c.Show)
	h.Delete(":userId", c.Reset)
}

func (c *sessionController) userParam(ctx *fiber.Ctx) (string, error) {
	param := dto.SessionUserParam{UserId: ctx.Params("userId")}
	if err := serverutils.ValidateRequest(param); err != nil {
		return "", err
	}
	return param.UserId, nil
}

func (c *sessionController) Show(ctx *fiber.Ctx) error {
	userID, err := c.userParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Show(ctx.UserContext(), userID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *sessionController) Reset(ctx *fiber.Ctx) error {
	userID, err := c.userParam(ctx)
	if err != nil {
		return err
	}

	if err := c.service.Reset(ctx.UserContext(), userID); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset session", nil))
}
