package commander

import (
	"context"
	"time"
)

// Commander is the messaging-client abstraction used by the bot. Run connects
// and delivers every event to handler until ctx is cancelled.
type Commander interface {
	Run(ctx context.Context, handler Handler) error
	SendMessage(ctx context.Context, chat string, text string) error
}

// Sender is the outbound half of Commander.
type Sender interface {
	SendMessage(ctx context.Context, chat string, text string) error
}

// Handler receives events from a Commander.
type Handler func(ctx context.Context, ev Event)

// Event is the closed set of events a Commander emits: PairingCode,
// Connected, InboundMessage and Other.
type Event interface {
	isEvent()
}

// PairingCode carries a login code to be shown to the operator as a QR.
type PairingCode struct {
	Code string
}

// Connected is emitted once the session is established.
type Connected struct{}

// InboundMessage is a received chat message.
type InboundMessage struct {
	ID        string
	Sender    string
	Chat      string
	Text      string
	FromMe    bool
	Timestamp time.Time
}

// Other is any client event the bot does not act on.
type Other struct {
	Kind string
}

func (PairingCode) isEvent()    {}
func (Connected) isEvent()      {}
func (InboundMessage) isEvent() {}
func (Other) isEvent()          {}
