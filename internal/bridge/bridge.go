// Package bridge connects commander events to the router and the terminal.
package bridge

import (
	"context"
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
	"go.uber.org/zap"

	"github.com/fepfitra/mykisah/internal/commander"
	"github.com/fepfitra/mykisah/internal/db"
)

// MessageHandler handles one inbound chat message.
type MessageHandler interface {
	Handle(ctx context.Context, msg commander.InboundMessage)
}

type Bridge struct {
	messages       MessageHandler
	out            io.Writer
	recorder       *db.Recorder
	processEventID *int64
	logger         *zap.Logger
}

// New returns a Bridge that prints pairing codes to out. recorder and logger may be nil.
func New(messages MessageHandler, out io.Writer, recorder *db.Recorder, processEventID *int64, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		messages:       messages,
		out:            out,
		recorder:       recorder,
		processEventID: processEventID,
		logger:         logger.Named("bridge"),
	}
}

// Handle dispatches ev. It has the commander.Handler signature.
func (b *Bridge) Handle(ctx context.Context, ev commander.Event) {
	switch e := ev.(type) {
	case commander.PairingCode:
		b.showPairingCode(e.Code)
	case commander.Connected:
		b.logger.Info("whatsapp session connected")
		b.recorder.Record(b.processEventID, db.EventSessionConnected, nil)
	case commander.InboundMessage:
		b.messages.Handle(ctx, e)
	case commander.Other:
		b.logger.Debug("event ignored", zap.String("kind", e.Kind))
	}
}

func (b *Bridge) showPairingCode(code string) {
	b.logger.Info("pairing code received")
	fmt.Fprintln(b.out, "Scan this QR code with WhatsApp:")
	fmt.Fprintln(b.out, "Open WhatsApp → Settings → Linked Devices → Link a Device")
	qrterminal.GenerateHalfBlock(code, qrterminal.L, b.out)
}
