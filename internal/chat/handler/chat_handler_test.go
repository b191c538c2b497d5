package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dinechat/dinechat/pkg/dialog"
)

type staticData struct {
	ref *dialog.ReferenceData
}

func (d staticData) Snapshot() (*dialog.ReferenceData, error) { return d.ref, nil }

func testData() staticData {
	catalog := []dialog.Restaurant{
		{
			Name:         "Trattoria Da Enzo",
			Cuisine:      "italian",
			Rating:       4.2,
			PriceRange:   "$$",
			OpeningHours: "17:00 - 23:00",
		},
		{
			Name:         "Golden Lotus",
			Cuisine:      "chinese",
			Rating:       4.6,
			PriceRange:   "$$",
			OpeningHours: "12:00 - 22:00",
		},
	}
	return staticData{ref: &dialog.ReferenceData{
		Intents: dialog.IntentTable{
			{Intent: "no_preference", Patterns: []string{"no preference", "any"}},
			{Intent: "main_menu", Patterns: []string{"main menu"}},
			{Intent: "yes", Patterns: []string{"yes", "yeah"}},
			{Intent: "no", Patterns: []string{"no"}},
		},
		Catalog: catalog,
		Index:   dialog.BuildIndex(catalog),
	}}
}

func newTestHandler(t *testing.T) (*ChatHandler, *MemoryStore) {
	t.Helper()
	engine := dialog.NewEngine(testData(), nil, nil, nil, dialog.EngineConfig{})
	store := NewMemoryStore(time.Minute)
	return NewChatHandler(engine, store), store
}

func dialWS(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestChatWelcomeAndTurn(t *testing.T) {
	handler, store := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/chat?session=conv1")

	var welcome OutboundMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.SessionID != "conv1" {
		t.Fatalf("session_id = %q, want conv1", welcome.SessionID)
	}
	if !strings.Contains(welcome.Response, "restaurant suggestion bot") {
		t.Fatalf("unexpected welcome: %q", welcome.Response)
	}

	if err := conn.WriteJSON(InboundMessage{Message: "italian"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	var reply OutboundMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	if !reply.Understood {
		t.Fatalf("turn not understood: %q", reply.Response)
	}
	if reply.Stage != dialog.StageRating.String() {
		t.Fatalf("stage = %q, want %q", reply.Stage, dialog.StageRating.String())
	}

	sess, ok := store.Get("conv1")
	if !ok {
		t.Fatal("expected session in store after chat")
	}
	if sess.HistoryLen() != 2 {
		t.Fatalf("history length = %d, want 2", sess.HistoryLen())
	}
}

func TestChatResumeSkipsWelcome(t *testing.T) {
	handler, _ := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/chat?session=resume1")
	var welcome OutboundMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if err := conn.WriteJSON(InboundMessage{Message: "italian"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	var reply OutboundMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	conn.Close()

	// Reconnecting resumes the session mid-conversation, so the first
	// frame must be the answer to the next turn, not a second greeting.
	conn2 := dialWS(t, srv, "/ws/chat?session=resume1")
	if err := conn2.WriteJSON(InboundMessage{Message: "4"}); err != nil {
		t.Fatalf("write turn: %v", err)
	}
	var resumed OutboundMessage
	if err := conn2.ReadJSON(&resumed); err != nil {
		t.Fatalf("read resumed reply: %v", err)
	}
	if strings.Contains(resumed.Response, "restaurant suggestion bot") {
		t.Fatalf("resumed session was greeted again: %q", resumed.Response)
	}
	if resumed.Stage != dialog.StagePrice.String() {
		t.Fatalf("stage = %q, want %q", resumed.Stage, dialog.StagePrice.String())
	}
}

func TestChatGeneratesSessionID(t *testing.T) {
	handler, _ := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := dialWS(t, srv, "/ws/chat")

	var welcome OutboundMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.SessionID == "" {
		t.Fatal("expected a generated session ID")
	}
}

func TestSessionAdminRoutes(t *testing.T) {
	handler, store := newTestHandler(t)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess, _ := store.GetOrCreate("admin1")
	sess.Record("hello", "hi there")

	t.Run("list", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/sessions")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var sessions []SessionResponse
		if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
			t.Fatal(err)
		}
		if len(sessions) != 1 || sessions[0].ID != "admin1" {
			t.Fatalf("unexpected list: %+v", sessions)
		}
	})

	t.Run("get", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/sessions/admin1")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var got SessionResponse
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.ID != "admin1" || got.Turns != 1 {
			t.Fatalf("unexpected session: %+v", got)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/sessions/nope")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("history", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/sessions/admin1/history")
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		var history []dialog.TurnRecord
		if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
			t.Fatal(err)
		}
		if len(history) != 1 || history[0].Input != "hello" {
			t.Fatalf("unexpected history: %+v", history)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/sessions/admin1", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", resp.StatusCode)
		}
		if _, ok := store.Get("admin1"); ok {
			t.Fatal("expected session removed")
		}
	})
}
