package httpapp

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

func TestEventStream_SSE(t *testing.T) {
	env := setupServer(t, RouterOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Expected text/event-stream, got %q", ct)
	}

	waitForSubscribers(t, env.bus, 1)
	id, err := env.mgr.Enqueue(domain.DownloadRequest{TrackName: "Song", ArtistName: "Artist"})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimPrefix(line, "data: ")
		}
	}

	if eventLine != string(domain.EventQueued) {
		t.Errorf("Expected %s, got %s", domain.EventQueued, eventLine)
	}
	var ev domain.Event
	if err := json.Unmarshal([]byte(dataLine), &ev); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if ev.ItemID != id || ev.Status != domain.EventStatusQueued {
		t.Errorf("Unexpected event %+v", ev)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for env.bus.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscription not released after client disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocket(t *testing.T) {
	env := setupServer(t, RouterOptions{})

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, env.bus, 1)
	id, _ := env.mgr.Enqueue(domain.DownloadRequest{TrackName: "Song", ArtistName: "Artist"})

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev domain.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != domain.EventQueued || ev.ItemID != id {
		t.Errorf("Unexpected event %+v", ev)
	}
}

func TestWebSocket_ClosedOnBusShutdown(t *testing.T) {
	env := setupServer(t, RouterOptions{})

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForSubscribers(t, env.bus, 1)
	env.bus.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("Expected going-away close, got %v", err)
	}
}
