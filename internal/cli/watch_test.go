package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/synthroute/pkg/live"
	"github.com/matzehuels/synthroute/pkg/session"
)

func TestWatcherExportsPushedGraphs(t *testing.T) {
	logger := log.New(&syncBuffer{})
	hub := live.NewHub(logger)
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	client, err := live.NewClient(srv.URL, logger)
	if err != nil {
		t.Fatal(err)
	}
	client.RoomID = "bench-3"
	client.ReconnectDelay = -1

	output := filepath.Join(t.TempDir(), "live.elements.json")
	sess := session.New(nil, logger)
	w := newWatcher(sess, output, logger)
	w.snapshot = filepath.Join(filepath.Dir(output), "live.snapshot.json")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, w) }()

	deadline := time.Now().Add(5 * time.Second)
	for hub.Subscribers("bench-3") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never joined the room")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n := hub.Broadcast("bench-3", json.RawMessage(testDocument)); n != 1 {
		t.Fatalf("Broadcast reached %d subscribers", n)
	}

	var got struct {
		Elements struct {
			Nodes []json.RawMessage `json:"nodes"`
		} `json:"elements"`
	}
	for {
		if data, err := os.ReadFile(output); err == nil && json.Unmarshal(data, &got) == nil && len(got.Elements.Nodes) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("elements file was not written")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
	w.wait()

	if sess.RoomID() != "bench-3" {
		t.Errorf("session room = %q", sess.RoomID())
	}

	data, err := os.ReadFile(w.snapshot)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	var snap struct {
		RoomID   string            `json:"room_id"`
		Document json.RawMessage   `json:"document"`
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.RoomID != "bench-3" || len(snap.Document) == 0 || len(snap.Elements) == 0 {
		t.Errorf("snapshot = %s", data)
	}
}
