package context

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Fragments is the fixed load order of persona and instruction files.
var Fragments = []string{
	"SOUL.md",
	"IDENTITY.md",
	"BOOTSTRAP.md",
	"AGENTS.md",
	"USER.md",
}

// Bundle is the ordered set of system turns prepended to every completion
// request. It is immutable after LoadBundle returns.
type Bundle struct {
	dir   string
	turns []Message
}

// LoadBundle reads every fragment present in dir, in Fragments order. Missing
// or unreadable fragments are skipped with a warning. An empty dir yields an
// empty bundle.
func LoadBundle(dir string, logger *zap.Logger) *Bundle {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bundle{dir: dir}
	if dir == "" {
		return b
	}

	for _, name := range Fragments {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Warn("context fragment not found", zap.String("path", path))
			} else {
				logger.Warn("failed to read context fragment", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		b.turns = append(b.turns, SystemMessage(string(data)))
	}
	logger.Info("context bundle loaded", zap.String("dir", dir), zap.Int("fragments", len(b.turns)))
	return b
}

// Dir returns the directory the bundle was loaded from.
func (b *Bundle) Dir() string {
	if b == nil {
		return ""
	}
	return b.dir
}

// Len reports the number of system turns.
func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	return len(b.turns)
}

// Turns returns a copy of the bundle's system turns.
func (b *Bundle) Turns() []Message {
	if b == nil || len(b.turns) == 0 {
		return nil
	}
	out := make([]Message, len(b.turns))
	copy(out, b.turns)
	return out
}
