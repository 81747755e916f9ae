// Package whatsapp implements commander.Commander on top of whatsmeow. The
// linked-device session is persisted in a SQLite store so pairing happens once.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	cmdpkg "github.com/fepfitra/mykisah/internal/commander"
)

const DefaultSessionDB = "whatsapp.db"

// Client wraps a whatsmeow client bound to the first device in the session store.
type Client struct {
	wa     *whatsmeow.Client
	logger *zap.Logger
}

// NewClient opens the session store at sessionPath and prepares a client for
// its first device. A fresh store yields an unpaired device.
func NewClient(ctx context.Context, sessionPath string, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionPath == "" {
		sessionPath = DefaultSessionDB
	}
	logger = logger.Named("whatsapp")

	container, err := sqlstore.New(ctx, "sqlite3", "file:"+sessionPath+"?_foreign_keys=on", NewLogger(logger.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp session store %s: %w", sessionPath, err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load whatsapp device: %w", err)
	}
	return &Client{
		wa:     whatsmeow.NewClient(device, NewLogger(logger.Named("client"))),
		logger: logger,
	}, nil
}

// Run connects and delivers translated events to handler until ctx is done.
// An unpaired device first emits one PairingCode per QR rotation.
func (c *Client) Run(ctx context.Context, handler cmdpkg.Handler) error {
	c.wa.AddEventHandler(func(evt any) {
		if ev := translate(evt); ev != nil {
			handler(ctx, ev)
		}
	})

	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("failed to get whatsapp QR channel: %w", err)
		}
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("failed to connect to whatsapp: %w", err)
		}
		if err := awaitPairing(ctx, qrChan, handler, c.logger); err != nil {
			c.wa.Disconnect()
			return err
		}
	} else {
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("failed to connect to whatsapp: %w", err)
		}
	}

	<-ctx.Done()
	c.logger.Info("disconnecting")
	c.wa.Disconnect()
	return nil
}

// awaitPairing forwards QR codes to handler until the device is paired. Any
// terminal event other than success (timeout, outdated client, unexpected
// state) ends pairing with an error.
func awaitPairing(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem, handler cmdpkg.Handler, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case item, ok := <-qrChan:
			if !ok {
				return nil
			}
			switch item.Event {
			case "code":
				handler(ctx, cmdpkg.PairingCode{Code: item.Code})
			case whatsmeow.QRChannelSuccess.Event:
				logger.Info("device paired")
			default:
				if item.Error != nil {
					return fmt.Errorf("whatsapp pairing failed: %s: %w", item.Event, item.Error)
				}
				return fmt.Errorf("whatsapp pairing failed: %s", item.Event)
			}
		}
	}
}

// SendMessage sends a plain text message to chat, given as a JID string.
func (c *Client) SendMessage(ctx context.Context, chat string, text string) error {
	jid, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("invalid chat jid %q: %w", chat, err)
	}
	if !c.wa.IsConnected() {
		return errors.New("whatsapp client is not connected")
	}
	if _, err := c.wa.SendMessage(ctx, jid, &waE2E.Message{Conversation: proto.String(text)}); err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	return nil
}

func translate(evt any) cmdpkg.Event {
	switch e := evt.(type) {
	case *events.Message:
		return cmdpkg.InboundMessage{
			ID:        string(e.Info.ID),
			Sender:    e.Info.Sender.String(),
			Chat:      e.Info.Chat.String(),
			Text:      extractText(e.Message),
			FromMe:    e.Info.IsFromMe,
			Timestamp: e.Info.Timestamp,
		}
	case *events.Connected:
		return cmdpkg.Connected{}
	case nil:
		return nil
	default:
		return cmdpkg.Other{Kind: strings.TrimPrefix(fmt.Sprintf("%T", evt), "*events.")}
	}
}

// extractText returns the plain conversation text, falling back to the text
// of an extended (reply or link preview) message.
func extractText(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if text := msg.GetConversation(); text != "" {
		return text
	}
	return msg.GetExtendedTextMessage().GetText()
}
