package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JaiminPatel345/Abhinavam-sub000/internal/apperr"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/auth"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/metrics"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/models"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/presence"
	"github.com/JaiminPatel345/Abhinavam-sub000/internal/service"
)

// Client -> server events.
const (
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventSendMessage       = "send_message"
	EventTyping            = "typing"
)

// Server -> client events.
const (
	EventReceiveMessage         = "receive_message"
	EventUserTyping             = "user_typing"
	EventNewMessageNotification = "new_message_notification"
	EventError                  = "error"
)

// Envelope is the wire frame for both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinPayload struct {
	ConversationID string `json:"conversation_id"`
}

type sendPayload struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content"`
	Attachment     string `json:"attachment,omitempty"`
	ReceiverID     string `json:"receiver_id,omitempty"`
}

type typingPayload struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type errorPayload struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type notificationPayload struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	Preview        string `json:"preview"`
}

// Gateway authenticates socket connections, maintains presence and routes
// room-scoped and direct events. Per connection the lifecycle is
// connect -> authenticate -> join rooms -> disconnect.
type Gateway struct {
	hub      *Hub
	presence presence.Store
	convs    *service.ConversationService
	msgs     *service.MessageService
	verifier *auth.Verifier
	log      *zap.SugaredLogger
}

func NewGateway(hub *Hub, pres presence.Store, convs *service.ConversationService, msgs *service.MessageService, verifier *auth.Verifier, log *zap.SugaredLogger) *Gateway {
	return &Gateway{hub: hub, presence: pres, convs: convs, msgs: msgs, verifier: verifier, log: log}
}

// Upgrade gates the HTTP route so only websocket upgrade requests reach the
// socket handler.
func (g *Gateway) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler runs one connection. The credential comes from the handshake's
// token query parameter; a missing or invalid token closes the connection
// without retry at this layer.
func (g *Gateway) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		token := conn.Query("token")
		userID, err := g.verifier.Verify(token)
		if err != nil {
			_ = conn.WriteMessage(websocket.TextMessage, marshalEvent(EventError, errorPayload{
				Action: "connect", Message: "missing or invalid credential", Kind: "authorization",
			}))
			_ = conn.Close()
			return
		}

		client := NewClient(uuid.NewString(), userID, conn)
		ctx := context.Background()

		g.hub.Register(client)
		if err := g.presence.Add(ctx, userID, client.ID); err != nil {
			g.log.Warnw("presence add", "user_id", userID, "err", err)
		}
		metrics.WSConnections.Inc()
		g.log.Infow("socket connected", "user_id", userID, "conn_id", client.ID)

		go client.WritePump()
		g.readLoop(ctx, client)

		g.hub.Unregister(client)
		if err := g.presence.Remove(ctx, userID, client.ID); err != nil {
			g.log.Warnw("presence remove", "user_id", userID, "err", err)
		}
		client.Close()
		metrics.WSConnections.Dec()
		g.log.Infow("socket disconnected", "user_id", userID, "conn_id", client.ID)
	}
}

func (g *Gateway) readLoop(ctx context.Context, client *Client) {
	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.sendError(client, "?", apperr.Validation("malformed event envelope"))
			continue
		}
		metrics.WSEvents.WithLabelValues(env.Event).Inc()
		g.dispatch(ctx, client, env)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, env Envelope) {
	switch env.Event {
	case EventJoinConversation:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			g.sendError(client, env.Event, apperr.Validation("conversation_id required"))
			return
		}
		// membership is a correctness requirement, checked before subscribing
		if _, err := g.convs.GetByID(ctx, p.ConversationID, client.UserID); err != nil {
			g.sendError(client, env.Event, err)
			return
		}
		g.hub.Join(p.ConversationID, client)

	case EventLeaveConversation:
		var p joinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			g.sendError(client, env.Event, apperr.Validation("conversation_id required"))
			return
		}
		g.hub.Leave(p.ConversationID, client)

	case EventSendMessage:
		var p sendPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			g.sendError(client, env.Event, apperr.Validation("malformed send_message payload"))
			return
		}
		g.handleSend(ctx, client, p)

	case EventTyping:
		var p typingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ConversationID == "" {
			g.sendError(client, env.Event, apperr.Validation("malformed typing payload"))
			return
		}
		g.hub.BroadcastRoom(p.ConversationID, marshalEvent(EventUserTyping, map[string]any{
			"conversation_id": p.ConversationID,
			"user_id":         client.UserID,
			"is_typing":       p.IsTyping,
		}), client.ID)

	default:
		g.sendError(client, env.Event, apperr.Validation("unknown event %q", env.Event))
	}
}

func (g *Gateway) handleSend(ctx context.Context, client *Client, p sendPayload) {
	m, err := g.msgs.Send(ctx, service.SendInput{
		SenderID:       client.UserID,
		ConversationID: p.ConversationID,
		Content:        p.Content,
		Attachment:     p.Attachment,
		ReceiverID:     p.ReceiverID,
	})
	if err != nil {
		g.sendError(client, EventSendMessage, err)
		return
	}

	g.hub.BroadcastRoom(m.ConversationID, marshalEvent(EventReceiveMessage, m), "")
	if m.ReceiverID != "" {
		g.notifyReceiver(ctx, m)
	}
}

// notifyReceiver emits a lightweight direct notification to every live
// connection of the receiver, independent of room membership.
func (g *Gateway) notifyReceiver(ctx context.Context, m *models.Message) {
	conns, err := g.presence.Connections(ctx, m.ReceiverID)
	if err != nil {
		g.log.Warnw("presence lookup", "user_id", m.ReceiverID, "err", err)
		return
	}
	payload := marshalEvent(EventNewMessageNotification, notificationPayload{
		ConversationID: m.ConversationID,
		MessageID:      m.ID,
		SenderID:       m.SenderID,
		Preview:        preview(m.Content),
	})
	for _, connID := range conns {
		g.hub.SendToConn(connID, payload)
	}
}

// sendError reports a failed socket action back to the emitting client
// instead of failing silently.
func (g *Gateway) sendError(client *Client, action string, err error) {
	g.log.Debugw("socket action failed", "action", action, "user_id", client.UserID, "err", err)
	client.Enqueue(marshalEvent(EventError, errorPayload{
		Action:  action,
		Message: apperr.Message(err),
		Kind:    apperr.KindOf(err).String(),
	}))
}

func marshalEvent(event string, data any) []byte {
	b, _ := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
	return b
}

const previewLen = 80

func preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen]) + "…"
}
