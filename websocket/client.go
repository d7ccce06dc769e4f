package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pawsit/pawsit_backend/models"
	"github.com/pawsit/pawsit_backend/services"
)

const (
	sendBufferSize = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
)

// Client is one realtime connection. It moves through connected,
// subscribed (once a subscribe event arrives), and closed; nothing is
// retained after close, so a reconnecting client resubscribes from scratch.
type Client struct {
	SubscriptionID uuid.UUID
	UserID         primitive.ObjectID

	handler *Handler
	conn    *websocket.Conn
	send    chan []byte

	// ctx is cancelled when the connection closes, abandoning any
	// aggregation still in flight for this client.
	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(handler *Handler, conn *websocket.Conn, userID primitive.ObjectID) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		SubscriptionID: uuid.New(),
		UserID:         userID,
		handler:        handler,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// readPump decodes inbound envelopes and dispatches subscribe events until
// the connection drops.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.handler.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("Connection %s sent malformed envelope: %v", c.SubscriptionID, err)
			continue
		}

		switch env.Event {
		case EventSubscribeRequests:
			c.handleSubscribe(services.TopicRequests, EventRequestsFromOwner, env.Data)
		case EventSubscribeConfirms:
			c.handleSubscribe(services.TopicConfirms, EventConfirmsFromSitter, env.Data)
		default:
			log.Printf("Connection %s sent unknown event %q", c.SubscriptionID, env.Event)
		}
	}
}

// handleSubscribe runs the aggregation for a subscribe event and emits the
// assembled batch back to this connection only. Aggregation happens off
// the read loop so a slow batch never stalls later events.
func (c *Client) handleSubscribe(topic, replyEvent string, data json.RawMessage) {
	var refs []models.RequestRef
	if err := json.Unmarshal(data, &refs); err != nil {
		log.Printf("Connection %s sent malformed %s payload: %v", c.SubscriptionID, topic, err)
		return
	}

	go func() {
		views := c.handler.aggregator.Aggregate(c.ctx, topic, refs)
		if c.ctx.Err() != nil {
			return
		}
		if views == nil {
			views = []models.NotificationView{}
		}
		c.emit(replyEvent, views)
	}()
}

// emit queues a frame for the write pump, dropping it if the buffer is
// full.
func (c *Client) emit(event string, data interface{}) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("Failed to marshal %s frame: %v", event, err)
		return
	}
	select {
	case c.send <- frame:
	case <-c.ctx.Done():
	}
}

// writePump is the single writer for the connection. It drains the send
// channel and keeps the connection alive with pings until the connection
// context is cancelled.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
