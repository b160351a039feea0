package websocket

import (
	"context"
	"time"

	"github.com/coder/websocket"

	"github.com/panekit/panekit/internal/nav"
)

// Client represents a WebSocket client connection.
type Client struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	lastActivity time.Time
}

// ID returns the client's session identity.
func (c *Client) ID() string { return c.id }

// ClientMessage is a message received from the browser: either an
// interaction against the navigation state or a resync request (sent on
// reconnect and window resize).
type ClientMessage struct {
	Type        string           `json:"type"` // "interaction" or "resync"
	Interaction *nav.Interaction `json:"interaction,omitempty"`
}

// OriginValidator validates WebSocket connection origins.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// OriginValidatorFunc adapts a function to the OriginValidator interface.
type OriginValidatorFunc func(origin string) bool

// IsAllowedOrigin implements OriginValidator.
func (f OriginValidatorFunc) IsAllowedOrigin(origin string) bool { return f(origin) }

// Navigator is the slice of the navigation controller the hub needs.
type Navigator interface {
	HandleInteraction(ctx context.Context, in nav.Interaction) bool
	Resync()
	Snapshot() map[string]bool
}
