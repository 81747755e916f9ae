package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fepfitra/mykisah/internal/db"
)

// seedTree writes two runs and returns the database path and the latest root id.
//
//	process.started                 id=1  (older run)
//	process.started                 id=2
//	├── session.connected           id=3
//	├── message.received (ping)     id=4
//	│   ├── command.ping            id=5
//	│   └── reply.sent              id=6
//	└── message.received (hello)    id=7
//	    └── completion.failed       id=8
func seedTree(t *testing.T) (string, int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.db")
	database, err := db.OpenDB(path)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.InitSchema(database))

	_, err = db.LogEvent(database, nil, db.EventProcessStarted, map[string]any{"pid": 1})
	require.NoError(t, err)
	root, err := db.LogEvent(database, nil, db.EventProcessStarted, map[string]any{"pid": 2})
	require.NoError(t, err)
	db.LogEvent(database, &root, db.EventSessionConnected, nil)
	ping, _ := db.LogEvent(database, &root, db.EventMessageReceived, map[string]any{"kind": "ping", "text": "ping"})
	db.LogEvent(database, &ping, db.EventCommandPing, nil)
	db.LogEvent(database, &ping, db.EventReplySent, map[string]any{"chars": 4})
	hello, _ := db.LogEvent(database, &root, db.EventMessageReceived, map[string]any{"kind": "chat", "text": "hello"})
	db.LogEvent(database, &hello, db.EventCompletionFailed, map[string]any{"error": "boom"})
	return path, root
}

func TestShowEvents_LatestRunTree(t *testing.T) {
	path, _ := seedTree(t)
	var out bytes.Buffer

	require.NoError(t, showEvents(&out, eventsOptions{dbPath: path}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "[2]")
	assert.Contains(t, lines[0], "pid=2")
	assert.True(t, strings.HasPrefix(lines[1], "├── [3]"), lines[1])
	assert.True(t, strings.HasPrefix(lines[3], "│   ├── [5]"), lines[3])
	assert.True(t, strings.HasPrefix(lines[6], "    └── [8]"), lines[6])
	assert.Contains(t, lines[6], "error=boom")
}

func TestShowEvents_DepthLimitAndNoPayload(t *testing.T) {
	path, root := seedTree(t)
	var out bytes.Buffer

	require.NoError(t, showEvents(&out, eventsOptions{dbPath: path, eventID: root, maxDepth: 2, noPayload: true}))

	text := out.String()
	assert.NotContains(t, text, "pid=")
	assert.NotContains(t, text, "command.ping")
	assert.Contains(t, text, "[...]")
}

func TestShowEvents_JSON(t *testing.T) {
	path, _ := seedTree(t)
	var out bytes.Buffer

	require.NoError(t, showEvents(&out, eventsOptions{dbPath: path, jsonOut: true}))

	var got jsonEvent
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, int64(2), got.ID)
	require.Len(t, got.Children, 3)
	assert.Equal(t, db.EventMessageReceived, got.Children[1].EventType)
	require.Len(t, got.Children[1].Children, 2)
	assert.Equal(t, db.EventReplySent, got.Children[1].Children[1].EventType)
}

func TestShowEvents_SubtreeByID(t *testing.T) {
	path, _ := seedTree(t)
	var out bytes.Buffer

	require.NoError(t, showEvents(&out, eventsOptions{dbPath: path, eventID: 7}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "message.received")
}

func TestShowEvents_Errors(t *testing.T) {
	err := showEvents(&bytes.Buffer{}, eventsOptions{dbPath: filepath.Join(t.TempDir(), "missing.db")})
	assert.Error(t, err)

	path, _ := seedTree(t)
	err = showEvents(&bytes.Buffer{}, eventsOptions{dbPath: path, eventID: 999})
	assert.ErrorContains(t, err, "event 999 not found")
}

func TestShowEvents_NoRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	database, err := db.OpenDB(path)
	require.NoError(t, err)
	require.NoError(t, db.InitSchema(database))
	database.Close()

	err = showEvents(&bytes.Buffer{}, eventsOptions{dbPath: path})
	assert.ErrorContains(t, err, "no process.started event found")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "42", formatValue(float64(42)))
	assert.Equal(t, "1.5", formatValue(1.5))
	assert.Equal(t, "true", formatValue(true))
	long := strings.Repeat("x", 100)
	assert.Equal(t, `"`+strings.Repeat("x", 80)+`..."`, formatValue(long))
}

