package realtime

import "encoding/json"

// Envelope is the server-to-client message: a registered event, the room it
// was delivered through, and an opaque payload owned by whatever domain
// handler emitted it.
type Envelope struct {
	Event   Event `json:"event"`
	Room    Room  `json:"room"`
	Payload any   `json:"payload,omitempty"`
}

// Control message types sent client-to-server for room membership. The server
// is the source of truth for membership; these are requests, not synchronous
// state changes.
const (
	MsgJoinOrder       = "join-order"
	MsgLeaveOrder      = "leave-order"
	MsgJoinRestaurant  = "join-restaurant"
	MsgLeaveRestaurant = "leave-restaurant"
	MsgJoinAdmin       = "join-admin"
	MsgLeaveAdmin      = "leave-admin"
	MsgJoinSuperadmin  = "join-superadmin"
	MsgLeaveSuperadmin = "leave-superadmin"
	MsgPublish         = "publish"
)

// ClientMessage is the client-to-server frame.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ScopePayload carries the entity id for join/leave control messages.
type ScopePayload struct {
	ID string `json:"id"`
}

// PublishPayload carries a client-emitted event.
type PublishPayload struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
