package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/apperr"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/service"
)

func serviceSendInput(senderID string, req sendMessageRequest) service.SendInput {
	return service.SendInput{
		SenderID:       senderID,
		ConversationID: req.ConversationID,
		Content:        req.Content,
		Attachment:     req.Attachment,
		ReceiverID:     req.Receiver,
	}
}

type createConversationRequest struct {
	Participants []string `json:"participants" validate:"required,min=1,dive,required"`
	IsGroup      bool     `json:"is_group"`
	GroupName    string   `json:"group_name"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment"`
	Receiver       string `json:"receiver"`
}

func (s *Server) createConversation(c *fiber.Ctx) error {
	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("invalid request body"))
	}
	if err := s.validate.Struct(&req); err != nil {
		return fail(c, apperr.Validation("participants required"))
	}

	conv, err := s.convs.CreateOrGet(c.Context(), userID(c), req.Participants, req.IsGroup, req.GroupName)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, conv)
}

func (s *Server) listConversations(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	views, err := s.convs.List(c.Context(), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, views)
}

func (s *Server) getConversation(c *fiber.Ctx) error {
	conv, err := s.convs.GetByID(c.Context(), c.Params("id"), userID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, conv)
}

func (s *Server) listMessages(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	msgs, err := s.msgs.History(c.Context(), c.Params("id"), userID(c), page, limit)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, msgs)
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, apperr.Validation("invalid request body"))
	}
	if err := s.validate.Struct(&req); err != nil {
		return fail(c, apperr.Validation("conversation_id required"))
	}

	m, err := s.msgs.Send(c.Context(), serviceSendInput(userID(c), req))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, m)
}

func (s *Server) markRead(c *fiber.Ctx) error {
	if err := s.msgs.MarkRead(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message_id": c.Params("id")})
}

func (s *Server) deleteForMe(c *fiber.Ctx) error {
	if err := s.msgs.DeleteForMe(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message_id": c.Params("id")})
}

func (s *Server) deleteForEveryone(c *fiber.Ctx) error {
	if err := s.msgs.DeleteForEveryone(c.Context(), c.Params("id"), userID(c)); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message_id": c.Params("id")})
}
