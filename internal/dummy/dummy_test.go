package dummy

import (
	"context"
	"testing"

	cmdpkg "github.com/fepfitra/mykisah/internal/commander"
	ctxpkg "github.com/fepfitra/mykisah/internal/context"
)

func TestNewProvider_InvalidScript(t *testing.T) {
	_, err := NewProvider("x", "boom", nil)
	if err == nil {
		t.Fatal("expected parse error for invalid script")
	}
}

func TestProvider_ScriptedResponses(t *testing.T) {
	p, err := NewProvider("x", "err:provider_api,msg:hello,empty", nil)
	if err != nil {
		t.Fatal(err)
	}
	turns := []ctxpkg.Message{ctxpkg.UserMessage("hi")}

	if _, err := p.ChatCompletion(context.Background(), turns); err == nil {
		t.Fatal("expected first call to error")
	}

	resp, err := p.ChatCompletion(context.Background(), turns)
	if err != nil {
		t.Fatal(err)
	}
	if content, ok := resp.FirstContent(); !ok || content != "hello" {
		t.Fatalf("expected hello, got %q ok=%v", content, ok)
	}

	resp, err = p.ChatCompletion(context.Background(), turns)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Choices) != 0 {
		t.Fatalf("expected no choices, got %d", len(resp.Choices))
	}
	if len(p.Calls()) != 3 {
		t.Fatalf("expected 3 recorded calls, got %d", len(p.Calls()))
	}
}

func TestProvider_MsgB64Action(t *testing.T) {
	p, err := NewProvider("x", "msgb64:aGVsbG8=", nil) // "hello"
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.ChatCompletion(context.Background(), []ctxpkg.Message{ctxpkg.UserMessage("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if content, _ := resp.FirstContent(); content != "hello" {
		t.Fatalf("expected hello, got %q", content)
	}
}

func TestCommander_RunPlaysScript(t *testing.T) {
	c, err := NewCommander("qr:CODE,connected,msg:test-msg,other:receipt", "ok")
	if err != nil {
		t.Fatal(err)
	}

	var got []cmdpkg.Event
	if err := c.Run(context.Background(), func(_ context.Context, ev cmdpkg.Event) {
		got = append(got, ev)
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	if qr, ok := got[0].(cmdpkg.PairingCode); !ok || qr.Code != "CODE" {
		t.Fatalf("unexpected first event: %#v", got[0])
	}
	if _, ok := got[1].(cmdpkg.Connected); !ok {
		t.Fatalf("unexpected second event: %#v", got[1])
	}
	if msg, ok := got[2].(cmdpkg.InboundMessage); !ok || msg.Text != "test-msg" || msg.Chat != DefaultChat {
		t.Fatalf("unexpected third event: %#v", got[2])
	}
	if other, ok := got[3].(cmdpkg.Other); !ok || other.Kind != "receipt" {
		t.Fatalf("unexpected fourth event: %#v", got[3])
	}
}

func TestCommander_RunError(t *testing.T) {
	c, err := NewCommander("err:transport", "ok")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(context.Background(), func(context.Context, cmdpkg.Event) {}); err == nil {
		t.Fatal("expected scripted error")
	}
}

func TestCommander_SendScript(t *testing.T) {
	c, err := NewCommander("", "err:down,ok")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(context.Background(), "a", "first"); err == nil {
		t.Fatal("expected first send to fail")
	}
	if err := c.SendMessage(context.Background(), "a", "second"); err != nil {
		t.Fatal(err)
	}
	sent := c.Sent()
	if len(sent) != 1 || sent[0].Text != "second" {
		t.Fatalf("unexpected sent messages: %+v", sent)
	}
}
