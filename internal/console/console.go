// Package console is the terminal front-end: a read-render-evaluate loop over
// local input that talks to the completion provider and the shell directly.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"go.uber.org/zap"

	ctxpkg "github.com/fepfitra/mykisah/internal/context"
	"github.com/fepfitra/mykisah/internal/model"
	"github.com/fepfitra/mykisah/internal/shell"
)

const (
	SpeakerYou        = "You"
	SpeakerAI         = "AI"
	SpeakerShell      = "SHELL"
	SpeakerShellError = "SHELL_ERROR"
)

const (
	bannerTitle = "Welcome to the AI Chat TUI!"
	bannerHelp  = "Type your message and press Enter. Type 'exit' to quit. Prefix with '!' for shell commands."
	prompt      = "You: "

	noChoicesText   = "OpenRouter returned no choices."
	shellDeniedText = "Shell commands are not allowed."
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)

	speakerStyles = map[string]lipgloss.Style{
		SpeakerYou:        lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		SpeakerAI:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		SpeakerShell:      lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		SpeakerShellError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
)

// Entry is one line of the session history.
type Entry struct {
	Speaker string
	Text    string
}

// Options wires the console's collaborators. Logger may be nil.
type Options struct {
	Provider          model.Provider
	Shell             *shell.Runner
	Policy            *shell.Policy
	Input             LineReader
	Output            io.Writer
	CompletionTimeout time.Duration
	Logger            *zap.Logger
}

type Console struct {
	provider          model.Provider
	shell             *shell.Runner
	policy            *shell.Policy
	in                LineReader
	out               io.Writer
	term              *termenv.Output
	completionTimeout time.Duration
	logger            *zap.Logger
	history           []Entry
}

func New(opts Options) *Console {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CompletionTimeout <= 0 {
		opts.CompletionTimeout = 60 * time.Second
	}
	if opts.Policy == nil {
		opts.Policy = shell.NewPolicy(true, "", "", "")
	}
	return &Console{
		provider:          opts.Provider,
		shell:             opts.Shell,
		policy:            opts.Policy,
		in:                opts.Input,
		out:               opts.Output,
		term:              termenv.NewOutput(opts.Output),
		completionTimeout: opts.CompletionTimeout,
		logger:            opts.Logger.Named("console"),
	}
}

// History returns a copy of the entries recorded so far.
func (c *Console) History() []Entry {
	out := make([]Entry, len(c.history))
	copy(out, c.history)
	return out
}

// Run loops until the user types exit, input ends, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.render()

		line, err := c.in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrAborted) {
				fmt.Fprintln(c.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.in.AppendHistory(line)

		if cmd, ok := c.policy.Command(line); ok {
			c.runShell(ctx, cmd)
			continue
		}
		if strings.EqualFold(line, "exit") {
			return nil
		}
		c.chat(ctx, line)
	}
}

func (c *Console) runShell(ctx context.Context, command string) {
	if !c.policy.Enabled || c.shell == nil || c.policy.IsDenied(command) {
		c.logger.Warn("shell command refused", zap.String("command", command))
		c.append(SpeakerShellError, shellDeniedText)
		return
	}
	res := c.shell.Run(ctx, command)
	switch {
	case res.Err != nil:
		c.logger.Warn("shell command failed to run", zap.Error(res.Err))
		c.append(SpeakerShellError, res.Err.Error())
	case res.OK:
		c.append(SpeakerShell, res.Stdout)
	default:
		c.append(SpeakerShellError, res.Stderr)
	}
}

func (c *Console) chat(ctx context.Context, text string) {
	c.append(SpeakerYou, text)
	log := c.logger.With(zap.String("trace_id", uuid.NewString()))

	callCtx, cancel := context.WithTimeout(ctx, c.completionTimeout)
	defer cancel()

	resp, err := c.provider.ChatCompletion(callCtx, []ctxpkg.Message{ctxpkg.UserMessage(text)})
	if err != nil {
		log.Error("failed to get completion", zap.Error(err))
		c.append(SpeakerAI, fmt.Sprintf("Error getting OpenRouter completion: %v", err))
		return
	}
	content, ok := resp.FirstContent()
	if !ok {
		log.Warn("completion returned no choices")
		c.append(SpeakerAI, noChoicesText)
		return
	}
	c.append(SpeakerAI, content)
}

func (c *Console) append(speaker, text string) {
	c.history = append(c.history, Entry{Speaker: speaker, Text: text})
}

// render clears the terminal and redraws the banner and the full history.
func (c *Console) render() {
	c.term.ClearScreen()
	fmt.Fprintln(c.out, titleStyle.Render(bannerTitle))
	fmt.Fprintln(c.out, helpStyle.Render(bannerHelp))
	fmt.Fprintln(c.out)
	for _, e := range c.history {
		style, ok := speakerStyles[e.Speaker]
		if !ok {
			style = lipgloss.NewStyle()
		}
		fmt.Fprintf(c.out, "%s: %s\n", style.Render(e.Speaker), strings.TrimRight(e.Text, "\n"))
	}
}
