package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/apperr"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/auth"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/config"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/service"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/ws"
)

type Server struct {
	app      *fiber.App
	convs    *service.ConversationService
	msgs     *service.MessageService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewServer(cfg *config.Config, convs *service.ConversationService, msgs *service.MessageService, gw *ws.Gateway, verifier *auth.Verifier, log *zap.SugaredLogger) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	app.Use(fiberlogger.New())

	s := &Server{
		app:      app,
		convs:    convs,
		msgs:     msgs,
		validate: validator.New(),
		log:      log,
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	v1.Use(JWTAuth(verifier))

	v1.Post("/conversations", s.createConversation)
	v1.Get("/conversations", s.listConversations)
	v1.Get("/conversations/:id", s.getConversation)
	v1.Get("/conversations/:id/messages", s.listMessages)
	v1.Post("/messages", s.sendMessage)
	v1.Patch("/messages/:id/read", s.markRead)
	v1.Delete("/messages/:id/everyone", s.deleteForEveryone)
	v1.Delete("/messages/:id", s.deleteForMe)

	v1.Get("/ws", gw.Upgrade, websocket.New(gw.Handler()))

	return s
}

func (s *Server) App() *fiber.App { return s.app }

func ok(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"status": "ok", "data": data})
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(apperr.HTTPStatus(err)).JSON(fiber.Map{
		"status": "error",
		"error":  apperr.Message(err),
		"kind":   apperr.KindOf(err).String(),
	})
}
