package websocket

import "encoding/json"

// Event names carried in message envelopes, client to server and back.
const (
	EventSubscribeRequests  = "subscribe:requests"
	EventSubscribeConfirms  = "subscribe:confirms"
	EventRequestsFromOwner  = "requestsFromOwner"
	EventConfirmsFromSitter = "confirmsFromSitter"
)

// Envelope frames every inbound websocket message. Data for subscribe
// events is an array of models.RequestRef.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// marshalEvent builds an outbound frame for an event and its payload.
func marshalEvent(event string, data interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Event string      `json:"event"`
		Data  interface{} `json:"data"`
	}{Event: event, Data: data})
}
