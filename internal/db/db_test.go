package db

import (
	"database/sql"
	"encoding/json"
	"testing"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDB(t.TempDir() + "/state/test.db")
	if err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSchema(t *testing.T) {
	db := testDB(t)

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='events'`).Scan(&name)
	if err != nil {
		t.Fatalf("events table not created: %v", err)
	}

	// Idempotent.
	if err := InitSchema(db); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestLogEvent_Basic(t *testing.T) {
	db := testDB(t)

	id1, err := LogEvent(db, nil, EventProcessStarted, map[string]any{"role": "bot", "pid": 123})
	if err != nil {
		t.Fatal(err)
	}
	if id1 <= 0 {
		t.Errorf("expected positive id, got %d", id1)
	}

	id2, err := LogEvent(db, nil, EventMessageReceived, map[string]any{"chat": "1@s.whatsapp.net"})
	if err != nil {
		t.Fatal(err)
	}
	if id2 <= id1 {
		t.Errorf("expected id2 > id1, got %d <= %d", id2, id1)
	}

	var ts int64
	if err := db.QueryRow(`SELECT timestamp FROM events WHERE id = ?`, id1).Scan(&ts); err != nil {
		t.Fatal(err)
	}
	if ts == 0 {
		t.Error("expected non-zero timestamp")
	}

	var payloadStr string
	if err := db.QueryRow(`SELECT payload FROM events WHERE id = ?`, id1).Scan(&payloadStr); err != nil {
		t.Fatal(err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(payloadStr), &payload); err != nil {
		t.Fatalf("invalid payload JSON: %v", err)
	}
	if payload["role"] != "bot" {
		t.Errorf("expected role=bot, got %v", payload["role"])
	}
}

func TestLogEvent_WithParent(t *testing.T) {
	db := testDB(t)

	parentID, err := LogEvent(db, nil, EventMessageReceived, map[string]any{"chat": "1"})
	if err != nil {
		t.Fatal(err)
	}

	childID, err := LogEvent(db, &parentID, EventReplySent, map[string]any{"chars": 4})
	if err != nil {
		t.Fatal(err)
	}

	var storedParent int64
	if err := db.QueryRow(`SELECT parent_id FROM events WHERE id = ?`, childID).Scan(&storedParent); err != nil {
		t.Fatal(err)
	}
	if storedParent != parentID {
		t.Errorf("expected parent_id=%d, got %d", parentID, storedParent)
	}

	var nullParent sql.NullInt64
	if err := db.QueryRow(`SELECT parent_id FROM events WHERE id = ?`, parentID).Scan(&nullParent); err != nil {
		t.Fatal(err)
	}
	if nullParent.Valid {
		t.Errorf("expected NULL parent_id for root event, got %d", nullParent.Int64)
	}
}

func TestLogEvent_NilPayload(t *testing.T) {
	db := testDB(t)

	id, err := LogEvent(db, nil, EventSessionConnected, nil)
	if err != nil {
		t.Fatal(err)
	}

	var payload sql.NullString
	if err := db.QueryRow(`SELECT payload FROM events WHERE id = ?`, id).Scan(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Valid {
		t.Errorf("expected NULL payload, got %q", payload.String)
	}
}

func TestCountEvents(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 3; i++ {
		if _, err := LogEvent(db, nil, EventCommandPing, nil); err != nil {
			t.Fatal(err)
		}
	}
	n, err := CountEvents(db, EventCommandPing)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
}

func TestRecorder(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, nil)

	root := r.Record(nil, EventProcessStarted, map[string]any{"role": "bot"})
	if root == nil {
		t.Fatal("expected root id")
	}
	child := r.Record(root, EventMessageReceived, nil)
	if child == nil || *child <= *root {
		t.Fatalf("unexpected child id %v", child)
	}

	var nilRecorder *Recorder
	if got := nilRecorder.Record(nil, EventProcessStarted, nil); got != nil {
		t.Fatalf("nil recorder stored an event: %d", *got)
	}
	if got := NewRecorder(nil, nil).Record(nil, EventProcessStarted, nil); got != nil {
		t.Fatalf("recorder without db stored an event: %d", *got)
	}
}

func TestRecorder_SwallowsErrors(t *testing.T) {
	db := testDB(t)
	r := NewRecorder(db, nil)
	db.Close()

	if got := r.Record(nil, EventProcessStarted, nil); got != nil {
		t.Fatalf("expected nil id on closed db, got %d", *got)
	}
}

func TestQuerySubtreeAndBuildTree(t *testing.T) {
	db := testDB(t)

	root, _ := LogEvent(db, nil, EventProcessStarted, map[string]any{"role": "bot"})
	msg, _ := LogEvent(db, &root, EventMessageReceived, nil)
	LogEvent(db, &msg, EventCompletionCompleted, nil)
	LogEvent(db, &msg, EventReplySent, nil)
	LogEvent(db, nil, EventProcessStarted, map[string]any{"role": "other"})

	latest, err := LatestProcessRoot(db)
	if err != nil {
		t.Fatal(err)
	}
	if latest == root {
		t.Fatalf("expected the newer process root, got %d", latest)
	}

	events, err := QuerySubtree(db, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	tree := BuildTree(events, root)
	if tree == nil || len(tree.Children) != 1 {
		t.Fatalf("unexpected tree root: %+v", tree)
	}
	children := tree.Children[0].Children
	if len(children) != 2 || children[0].EventType != EventCompletionCompleted || children[1].EventType != EventReplySent {
		t.Fatalf("unexpected message children: %+v", children)
	}
}

func TestLatestProcessRoot_Empty(t *testing.T) {
	db := testDB(t)
	if _, err := LatestProcessRoot(db); err == nil {
		t.Fatal("expected error on empty events table")
	}
}
