package websocket

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawsit/pawsit_backend/models"
	"github.com/pawsit/pawsit_backend/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler owns the upgrade path for realtime connections and the targeted
// notify events fired when requests are created or confirmed.
type Handler struct {
	hub        *Hub
	aggregator *services.NotificationAggregator
}

func NewHandler(hub *Hub, aggregator *services.NotificationAggregator) *Handler {
	return &Handler{hub: hub, aggregator: aggregator}
}

// HandleWebSocket upgrades the connection for an authenticated user and
// starts its pumps.
func (h *Handler) HandleWebSocket(c echo.Context, userID primitive.ObjectID) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn, userID)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

// NotifyNewRequest delivers an incremental requestsFromOwner notice to the
// sitter a new request targets. If the sitter holds no connection the
// notice is dropped; unread state is rebuilt from the REST listing plus a
// fresh subscribe on the next connect.
func (h *Handler) NotifyNewRequest(ctx context.Context, ref models.RequestRef) {
	h.notify(ctx, services.TopicRequests, EventRequestsFromOwner, ref, ref.SitterUserID)
}

// NotifyConfirmation delivers an incremental confirmsFromSitter notice to
// the owner whose request was accepted or declined. Same drop policy as
// NotifyNewRequest.
func (h *Handler) NotifyConfirmation(ctx context.Context, ref models.RequestRef) {
	h.notify(ctx, services.TopicConfirms, EventConfirmsFromSitter, ref, ref.OwnerUserID)
}

func (h *Handler) notify(ctx context.Context, topic, event string, ref models.RequestRef, targetUser string) {
	views := h.aggregator.Aggregate(ctx, topic, []models.RequestRef{ref})
	if len(views) == 0 {
		return
	}

	target, err := primitive.ObjectIDFromHex(targetUser)
	if err != nil {
		log.Printf("Dropping %s notice for request %s: bad target user id %q", event, ref.RequestID, targetUser)
		return
	}
	if err := h.hub.SendToUser(target, event, views); err != nil {
		log.Printf("Dropping %s notice for request %s: %v", event, ref.RequestID, err)
	}
}
