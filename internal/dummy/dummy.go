package dummy

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	cmdpkg "github.com/fepfitra/mykisah/internal/commander"
	ctxpkg "github.com/fepfitra/mykisah/internal/context"
	modelpkg "github.com/fepfitra/mykisah/internal/model"
)

const (
	DefaultChat   = "10000@s.whatsapp.net"
	DefaultSender = "10000@s.whatsapp.net"
)

type action struct {
	kind string
	arg  string
}

var argActions = []string{"ok", "err", "sleep", "msg", "msgb64", "qr", "other"}

func parseScript(script string) ([]action, error) {
	if strings.TrimSpace(script) == "" {
		return []action{{kind: "ok"}}, nil
	}
	parts := strings.Split(script, ",")
	actions := make([]action, 0, len(parts))
	for _, p := range parts {
		token := strings.TrimSpace(p)
		if token == "" {
			continue
		}
		switch token {
		case "ok", "empty", "connected":
			actions = append(actions, action{kind: token})
			continue
		}
		kind, arg, found := strings.Cut(token, ":")
		if !found || !contains(argActions, kind) {
			return nil, fmt.Errorf("invalid dummy action: %s", token)
		}
		actions = append(actions, action{kind: kind, arg: arg})
	}
	if len(actions) == 0 {
		actions = append(actions, action{kind: "ok"})
	}
	return actions, nil
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}

type scriptRunner struct {
	actions []action
	index   int
}

func newRunner(script string) (*scriptRunner, error) {
	actions, err := parseScript(script)
	if err != nil {
		return nil, err
	}
	return &scriptRunner{actions: actions}, nil
}

// next returns the next action, repeating the last one once the script is exhausted.
func (r *scriptRunner) next() action {
	if len(r.actions) == 0 {
		return action{kind: "ok"}
	}
	if r.index >= len(r.actions) {
		return r.actions[len(r.actions)-1]
	}
	a := r.actions[r.index]
	r.index++
	return a
}

// SentMessage is one message passed to Commander.SendMessage.
type SentMessage struct {
	Chat string
	Text string
}

// Commander replays a scripted event sequence and records outbound messages.
// Event script actions: qr:<code>, connected, msg:<text>, msgb64:<base64>,
// other:<kind>, sleep:<ms>, err:<class>. Send script actions: ok, err:<class>, sleep:<ms>.
type Commander struct {
	mu     sync.Mutex
	events []action
	send   *scriptRunner
	seq    int
	sent   []SentMessage
}

func NewCommander(eventScript, sendScript string) (*Commander, error) {
	events, err := parseScript(eventScript)
	if err != nil {
		return nil, err
	}
	send, err := newRunner(sendScript)
	if err != nil {
		return nil, err
	}
	return &Commander{events: events, send: send}, nil
}

// Run delivers each scripted event once, in order, then returns.
func (c *Commander) Run(ctx context.Context, handler cmdpkg.Handler) error {
	for _, a := range c.events {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := c.event(a)
		if err != nil {
			return err
		}
		if ev != nil {
			handler(ctx, ev)
		}
	}
	return nil
}

func (c *Commander) event(a action) (cmdpkg.Event, error) {
	switch a.kind {
	case "qr":
		return cmdpkg.PairingCode{Code: a.arg}, nil
	case "connected":
		return cmdpkg.Connected{}, nil
	case "other":
		return cmdpkg.Other{Kind: a.arg}, nil
	case "msg":
		return c.message(a.arg), nil
	case "msgb64":
		raw, err := base64.StdEncoding.DecodeString(a.arg)
		if err != nil {
			return nil, fmt.Errorf("dummy commander msgb64 decode failed: %w", err)
		}
		return c.message(string(raw)), nil
	case "sleep":
		sleepMillis(a.arg)
		return nil, nil
	case "err":
		return nil, fmt.Errorf("dummy commander error class=%s", emptyAs(a.arg, "command_source_api"))
	default:
		return nil, nil
	}
}

func (c *Commander) message(text string) cmdpkg.InboundMessage {
	c.mu.Lock()
	c.seq++
	id := c.seq
	c.mu.Unlock()
	return cmdpkg.InboundMessage{
		ID:        "DUMMY" + strconv.Itoa(id),
		Sender:    DefaultSender,
		Chat:      DefaultChat,
		Text:      text,
		Timestamp: time.Now(),
	}
}

func (c *Commander) SendMessage(ctx context.Context, chat string, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.send.next()
	switch a.kind {
	case "err":
		return fmt.Errorf("dummy commander send error class=%s", emptyAs(a.arg, "command_source_api"))
	case "sleep":
		sleepMillis(a.arg)
	}
	c.sent = append(c.sent, SentMessage{Chat: chat, Text: text})
	return nil
}

// Sent returns a copy of the successfully sent messages.
func (c *Commander) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// Provider returns scripted completions and records every assembled request.
// Script actions: ok[:text], msg:<text>, msgb64:<base64>, empty, err:<class>, sleep:<ms>.
type Provider struct {
	mu     sync.Mutex
	model  string
	bundle *ctxpkg.Bundle
	script *scriptRunner
	calls  [][]ctxpkg.Message
}

func NewProvider(model, script string, bundle *ctxpkg.Bundle) (*Provider, error) {
	runner, err := newRunner(script)
	if err != nil {
		return nil, err
	}
	return &Provider{model: model, bundle: bundle, script: runner}, nil
}

func (p *Provider) ChatCompletion(ctx context.Context, turns []ctxpkg.Message) (*modelpkg.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, ctxpkg.Assemble(p.bundle, turns))
	a := p.script.next()
	switch a.kind {
	case "err":
		return nil, fmt.Errorf("dummy provider error class=%s", emptyAs(a.arg, "provider_api"))
	case "empty":
		return p.response(), nil
	case "sleep":
		sleepMillis(a.arg)
		return p.response("dummy-after-sleep"), nil
	case "msg":
		return p.response(a.arg), nil
	case "msgb64":
		raw, err := base64.StdEncoding.DecodeString(a.arg)
		if err != nil {
			return nil, fmt.Errorf("dummy provider msgb64 decode failed: %w", err)
		}
		return p.response(string(raw)), nil
	default:
		return p.response(emptyAs(a.arg, "dummy-ok")), nil
	}
}

// Calls returns every message list the provider was asked to complete.
func (p *Provider) Calls() [][]ctxpkg.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]ctxpkg.Message, len(p.calls))
	copy(out, p.calls)
	return out
}

func (p *Provider) response(contents ...string) *modelpkg.CompletionResponse {
	resp := &modelpkg.CompletionResponse{
		ID:      fmt.Sprintf("dummy-%d", len(p.calls)),
		Model:   p.model,
		Created: time.Now().Unix(),
	}
	for i, content := range contents {
		resp.Choices = append(resp.Choices, modelpkg.Choice{
			Index:        i,
			Message:      ctxpkg.Message{Role: ctxpkg.RoleAssistant, Content: content},
			FinishReason: "stop",
		})
	}
	return resp
}

func sleepMillis(raw string) {
	ms, _ := strconv.Atoi(raw)
	if ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}

func emptyAs(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
