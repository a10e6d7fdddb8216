package server

import (
	"shelfswap/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListTrades handles GET /api/trades
func (s *Server) ListTrades(c *fiber.Ctx) error {
	trades, err := s.tradeService.ListForUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trades)
}

// GetTrade handles GET /api/trades/:id
func (s *Server) GetTrade(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	trade, err := s.tradeService.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trade)
}

// ProposeTrade handles POST /api/trades
func (s *Server) ProposeTrade(c *fiber.Ctx) error {
	var req service.ProposeTradeInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ProposerID = currentUserID(c)

	trade, err := s.tradeService.Propose(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(trade)
}

// UpdateTradeStatus handles PATCH /api/trades/:id/status
func (s *Server) UpdateTradeStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateTradeStatusInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.TradeID = id
	req.ActorID = currentUserID(c)

	trade, err := s.tradeService.UpdateStatus(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(trade)
}

// GetTradeMessages handles GET /api/trades/:id/messages
func (s *Server) GetTradeMessages(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	messages, err := s.chatService.List(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// SendTradeMessage handles POST /api/trades/:id/messages
func (s *Server) SendTradeMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.SendMessageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.TradeID = id
	req.SenderID = currentUserID(c)

	msg, err := s.chatService.Send(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// PinTradeMessage handles PATCH /api/trades/:tradeId/messages/:messageId/pin
func (s *Server) PinTradeMessage(c *fiber.Ctx) error {
	return s.setMessagePinned(c, true)
}

// UnpinTradeMessage handles PATCH /api/trades/:tradeId/messages/:messageId/unpin
func (s *Server) UnpinTradeMessage(c *fiber.Ctx) error {
	return s.setMessagePinned(c, false)
}

func (s *Server) setMessagePinned(c *fiber.Ctx, pinned bool) error {
	tradeID, err := parseID(c, "tradeId")
	if err != nil {
		return nil
	}
	messageID, err := parseID(c, "messageId")
	if err != nil {
		return nil
	}

	msg, err := s.chatService.SetPinned(c.UserContext(), service.PinMessageInput{
		TradeID:   tradeID,
		MessageID: messageID,
		UserID:    currentUserID(c),
		Pinned:    pinned,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(msg)
}
