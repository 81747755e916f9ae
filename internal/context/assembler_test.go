package context

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAssemble_BundleFirst(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "SOUL.md", "You are a bot.")

	bundle := LoadBundle(dir, nil)
	result := Assemble(bundle, []Message{UserMessage("new question")})

	if len(result) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result))
	}
	if result[0].Role != RoleSystem || result[0].Content != "You are a bot." {
		t.Errorf("unexpected system message: %+v", result[0])
	}
	if result[1].Role != RoleUser || result[1].Content != "new question" {
		t.Errorf("unexpected user message: %+v", result[1])
	}
}

func TestAssemble_NilBundle(t *testing.T) {
	result := Assemble(nil, []Message{UserMessage("hello")})

	if len(result) != 1 {
		t.Fatalf("expected 1 message, got %d", len(result))
	}
	if result[0].Role != RoleUser || result[0].Content != "hello" {
		t.Errorf("unexpected user message: %+v", result[0])
	}
}

func TestAssemble_DoesNotAliasBundle(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "USER.md", "profile")
	bundle := LoadBundle(dir, nil)

	result := Assemble(bundle, nil)
	result[0].Content = "mutated"

	if got := bundle.Turns()[0].Content; got != "profile" {
		t.Fatalf("bundle mutated through assembled slice: %q", got)
	}
}

func writeFragment(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
