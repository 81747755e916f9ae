// Package router classifies inbound chat messages and produces at most one
// reply per message: shell escape output, "pong", or a model completion.
package router

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fepfitra/mykisah/internal/commander"
	ctxpkg "github.com/fepfitra/mykisah/internal/context"
	"github.com/fepfitra/mykisah/internal/db"
	"github.com/fepfitra/mykisah/internal/model"
	"github.com/fepfitra/mykisah/internal/shell"
)

// Kind is the classification of an inbound message.
type Kind int

const (
	KindIgnore Kind = iota
	KindShell
	KindPing
	KindChat
)

func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	case KindPing:
		return "ping"
	case KindChat:
		return "chat"
	default:
		return "ignore"
	}
}

const (
	pongReply                = "pong"
	shellDeniedReply         = "Shell commands are not allowed."
	defaultCompletionTimeout = 60 * time.Second
)

// Classify applies the routing priority: shell escape, then ping, then chat.
// payload is the shell command for KindShell and the original text otherwise.
func Classify(text string, policy *shell.Policy) (kind Kind, payload string) {
	if text == "" {
		return KindIgnore, ""
	}
	if policy != nil {
		if cmd, ok := policy.Command(text); ok {
			return KindShell, cmd
		}
	}
	if strings.ToLower(strings.TrimSpace(text)) == "ping" {
		return KindPing, text
	}
	return KindChat, text
}

// Options wires the router's collaborators. Recorder and Logger may be nil.
type Options struct {
	Provider          model.Provider
	Sender            commander.Sender
	Shell             *shell.Runner
	Policy            *shell.Policy
	Recorder          *db.Recorder
	ProcessEventID    *int64
	CompletionTimeout time.Duration
	Logger            *zap.Logger
}

// Router holds no per-chat state; every message is handled independently.
type Router struct {
	provider          model.Provider
	sender            commander.Sender
	shell             *shell.Runner
	policy            *shell.Policy
	recorder          *db.Recorder
	processEventID    *int64
	completionTimeout time.Duration
	logger            *zap.Logger
}

func New(opts Options) *Router {
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = defaultCompletionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Policy == nil {
		opts.Policy = shell.NewPolicy(false, "", "", "")
	}
	return &Router{
		provider:          opts.Provider,
		sender:            opts.Sender,
		shell:             opts.Shell,
		policy:            opts.Policy,
		recorder:          opts.Recorder,
		processEventID:    opts.ProcessEventID,
		completionTimeout: opts.CompletionTimeout,
		logger:            opts.Logger.Named("router"),
	}
}

// Handle routes one inbound message. Errors are logged and never returned.
func (r *Router) Handle(ctx context.Context, msg commander.InboundMessage) {
	kind, payload := Classify(msg.Text, r.policy)
	if kind == KindIgnore {
		r.logger.Debug("message without text ignored",
			zap.String("sender", msg.Sender),
			zap.String("chat", msg.Chat),
		)
		return
	}

	traceID := uuid.NewString()
	log := r.logger.With(
		zap.String("trace_id", traceID),
		zap.String("sender", msg.Sender),
		zap.String("chat", msg.Chat),
		zap.Stringer("kind", kind),
	)
	log.Info("message received", zap.String("text", truncate(msg.Text, 200)))
	msgEventID := r.recorder.Record(r.processEventID, db.EventMessageReceived, map[string]any{
		"trace_id":   traceID,
		"message_id": msg.ID,
		"sender":     msg.Sender,
		"chat":       msg.Chat,
		"kind":       kind.String(),
		"text":       truncate(msg.Text, 1000),
	})

	switch kind {
	case KindShell:
		r.handleShell(ctx, log, msg, payload, msgEventID)
	case KindPing:
		r.recorder.Record(msgEventID, db.EventCommandPing, nil)
		r.reply(ctx, log, msg.Chat, pongReply, msgEventID)
	case KindChat:
		r.handleChat(ctx, log, msg, payload, msgEventID)
	}
}

func (r *Router) handleShell(ctx context.Context, log *zap.Logger, msg commander.InboundMessage, command string, parent *int64) {
	if !r.policy.Enabled || r.shell == nil || !r.policy.SenderAllowed(msg.Sender) || r.policy.IsDenied(command) {
		log.Warn("shell command refused", zap.String("command", truncate(command, 200)))
		r.recorder.Record(parent, db.EventShellDenied, map[string]any{
			"command": truncate(command, 1000),
		})
		r.reply(ctx, log, msg.Chat, shellDeniedReply, parent)
		return
	}

	started := time.Now()
	res := r.shell.Run(ctx, command)
	payload := map[string]any{
		"command":     truncate(command, 1000),
		"exit_code":   res.ExitCode,
		"ok":          res.OK,
		"truncated":   res.Truncated,
		"duration_ms": time.Since(started).Milliseconds(),
	}
	if res.Err != nil {
		payload["error"] = res.Err.Error()
		log.Warn("shell command failed to run", zap.Error(res.Err))
	}
	r.recorder.Record(parent, db.EventCommandShell, payload)
	r.reply(ctx, log, msg.Chat, res.Reply(), parent)
}

func (r *Router) handleChat(ctx context.Context, log *zap.Logger, msg commander.InboundMessage, text string, parent *int64) {
	callCtx, cancel := context.WithTimeout(ctx, r.completionTimeout)
	defer cancel()

	started := time.Now()
	resp, err := r.provider.ChatCompletion(callCtx, []ctxpkg.Message{ctxpkg.UserMessage(text)})
	latency := time.Since(started)
	if err != nil {
		log.Error("failed to get completion", zap.Error(err), zap.Duration("latency", latency))
		r.recorder.Record(parent, db.EventCompletionFailed, map[string]any{
			"error":      truncate(err.Error(), 1000),
			"latency_ms": latency.Milliseconds(),
		})
		return
	}

	content, ok := resp.FirstContent()
	if !ok {
		log.Warn("completion returned no choices", zap.String("completion_id", resp.ID))
		r.recorder.Record(parent, db.EventCompletionEmpty, map[string]any{
			"completion_id": resp.ID,
			"model":         resp.Model,
		})
		return
	}
	r.recorder.Record(parent, db.EventCompletionCompleted, map[string]any{
		"completion_id": resp.ID,
		"model":         resp.Model,
		"latency_ms":    latency.Milliseconds(),
		"finish_reason": resp.Choices[0].FinishReason,
	})
	r.reply(ctx, log, msg.Chat, content, parent)
}

func (r *Router) reply(ctx context.Context, log *zap.Logger, chat, text string, parent *int64) {
	if err := r.sender.SendMessage(ctx, chat, text); err != nil {
		log.Error("failed to send reply", zap.Error(err))
		r.recorder.Record(parent, db.EventReplyFailed, map[string]any{
			"error": truncate(err.Error(), 1000),
		})
		return
	}
	r.recorder.Record(parent, db.EventReplySent, map[string]any{
		"chars": len([]rune(text)),
	})
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
