package controller

import (
	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/pkg/serverutils"
	"subsidy-intake-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentEvents bounds the fan-out of one webhook delivery
const maxConcurrentEvents = 16

type IWebhookController interface {
	RegisterRoutes(r fiber.Router)
	Callback(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type webhookController struct {
	conversation  service.IConversationService
	channelSecret string
	lineEnabled   bool
	corpusSize    int
}

func NewWebhookController(
	conversation service.IConversationService,
	channelSecret string,
	lineEnabled bool,
	corpusSize int,
) IWebhookController {
	return &webhookController{
		conversation:  conversation,
		channelSecret: channelSecret,
		lineEnabled:   lineEnabled,
		corpusSize:    corpusSize,
	}
}

func (c *webhookController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.Health)
	r.Get("/health", c.Health)
	r.Post("/callback", serverutils.SignatureMiddleware(c.channelSecret), c.Callback)
}

func (c *webhookController) Health(ctx *fiber.Ctx) error {
	res := dto.HealthResponse{
		Status:  "healthy",
		LineBot: "disabled",
		Message: "LINE delivery is disabled, set LINE_CHANNEL_ACCESS_TOKEN to enable it",
		Corpus:  c.corpusSize,
	}
	if c.lineEnabled {
		res.LineBot = "enabled"
		res.Message = "LINE bot is running"
	}
	return ctx.JSON(res)
}

// Callback handles every event of the request concurrently and answers
// only after all of them finished.
func (c *webhookController) Callback(ctx *fiber.Ctx) error {
	if !c.lineEnabled {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(fiber.StatusServiceUnavailable, "LINE bot is disabled"))
	}

	var req dto.WebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	userCtx := ctx.UserContext()
	var g errgroup.Group
	g.SetLimit(maxConcurrentEvents)
	for _, event := range req.Events {
		g.Go(func() error {
			c.conversation.HandleEvent(userCtx, event)
			return nil
		})
	}
	_ = g.Wait()

	return ctx.JSON(dto.WebhookResponse{Status: "ok"})
}
