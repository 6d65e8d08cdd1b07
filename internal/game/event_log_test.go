package game

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEventLogWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	if el.Emit(NewEvent(EventTypeTick, 1, "", TickPayload{})) {
		t.Fatal("emit accepted before start")
	}
	if err := el.StartWriter(&buf); err != nil {
		t.Fatal(err)
	}

	el.EmitSimple(EventTypeKill, 7, "", KillPayload{KillerID: "a", VictimID: "b", KillerKills: 1})
	el.EmitSimple(EventTypeEntityCreate, 8, "client-1", EntityCreatePayload{EntityID: "e", ClassName: "prop_physics"})
	el.Stop()

	var lines []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("wrote %d lines, want 2", len(lines))
	}
	if lines[0]["type"] != "kill" || lines[0]["tick"] != float64(7) || lines[0]["sequence"] != float64(1) {
		t.Errorf("first line = %v", lines[0])
	}
	payload, _ := lines[0]["payload"].(map[string]any)
	if payload["killerId"] != "a" || payload["killerKills"] != float64(1) {
		t.Errorf("payload = %v", payload)
	}
	if lines[1]["type"] != "entity_create" || lines[1]["source"] != "client-1" {
		t.Errorf("second line = %v", lines[1])
	}

	stats := el.Stats()
	if stats.Total != 2 || stats.Written != 2 || stats.Running {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEventLogLimitsChattySources(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLog()
	el.StartWriter(&buf)
	defer el.Stop()

	accepted := 0
	for range 50 {
		if el.EmitSimple(EventTypeConsole, 1, "spammer", ConsolePayload{Line: "ent_create prop"}) {
			accepted++
		}
	}
	if accepted >= 50 || el.Stats().Dropped == 0 {
		t.Errorf("accepted %d of 50, dropped %d", accepted, el.Stats().Dropped)
	}
	if !el.EmitSimple(EventTypeConsole, 1, "someone-else", ConsolePayload{}) {
		t.Error("other sources should not be limited")
	}
}

func TestEventLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(path); err != nil {
		t.Fatal(err)
	}
	el.EmitSimple(EventTypeClientJoin, 0, "", ClientPayload{ClientID: "c", Name: "n"})
	el.Stop()
	el.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"type":"client_join"`)) {
		t.Errorf("file = %s", data)
	}
}

func TestEventTypeString(t *testing.T) {
	tests := map[EventType]string{
		EventTypeTick:         "tick",
		EventTypeDamage:       "damage",
		EventTypeShockwave:    "shockwave",
		EventTypeConsole:      "console",
		EventType(200):        "unknown",
		EventTypeUnknown:      "unknown",
		EventTypeClientLeave:  "client_leave",
		EventTypeEntityCreate: "entity_create",
	}
	for typ, want := range tests {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
