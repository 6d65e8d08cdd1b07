package game

import (
	"time"

	"github.com/google/uuid"
)

// ClientID identifies a connected client.
type ClientID string

// Client is one connection: its input, latency and the pawn it controls.
type Client struct {
	id       ClientID
	name     string
	admin    bool
	Pawn     *Pawn
	Input    InputState
	Latency  time.Duration
	Clothing []string
	JoinedAt time.Time
}

// NewClient creates a client with a fresh id.
func NewClient(name string, admin bool) *Client {
	return &Client{
		id:       ClientID(uuid.NewString()),
		name:     name,
		admin:    admin,
		JoinedAt: time.Now(),
	}
}

func (c *Client) ID() ClientID     { return c.id }
func (c *Client) CallerID() string { return string(c.id) }
func (c *Client) Name() string     { return c.name }
func (c *Client) IsAdmin() bool    { return c.admin }
