package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/cartoncaps/capper/internal/chat"
	"github.com/cartoncaps/capper/internal/config"
	"github.com/cartoncaps/capper/internal/history"
	"github.com/cartoncaps/capper/internal/knowledge"
	"github.com/cartoncaps/capper/internal/llm"
	"github.com/cartoncaps/capper/internal/prompt"
)

type flakyGateway struct {
	err   error
	reply string
}

func (g *flakyGateway) Complete(_ context.Context, _ string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTestServer(t *testing.T, gw llm.Client) (*Server, *knowledge.InMemoryStore, *history.InMemoryStore) {
	t.Helper()
	if gw == nil {
		gw = llm.NewMockClient()
	}
	ks := knowledge.NewInMemoryStore()
	hs := history.NewInMemoryStore()
	svc, err := chat.NewService(ks, hs, gw, prompt.NewAssembler(10), nil)
	if err != nil {
		t.Fatalf("chat.NewService() error = %v", err)
	}
	return New(config.Config{AllowAnyOrigin: true}, svc, ks), ks, hs
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatEndpointMintsConversation(t *testing.T) {
	srv, ks, hs := newTestServer(t, &flakyGateway{reply: "We have cereal caps."})
	user := ks.AddUser(knowledge.Profile{Name: "Jane"})
	router := srv.Router()

	rec := postJSON(t, router, "/chat", map[string]any{
		"user_id": user.ID,
		"message": "What breakfast items do you have?",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /chat status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ConversationID == "" || resp.Response == "" {
		t.Fatalf("response incomplete: %+v", resp)
	}

	turns, _ := hs.Load(context.Background(), resp.ConversationID)
	if len(turns) != 2 {
		t.Fatalf("conversation has %d turns, want 2", len(turns))
	}
}

func TestChatEndpointStatusMapping(t *testing.T) {
	srv, ks, _ := newTestServer(t, &flakyGateway{reply: "ok"})
	user := ks.AddUser(knowledge.Profile{Name: "Jane"})
	router := srv.Router()

	cases := []struct {
		name    string
		payload map[string]any
		status  int
	}{
		{"empty message", map[string]any{"user_id": user.ID, "message": "   "}, http.StatusBadRequest},
		{"unknown user", map[string]any{"user_id": 999, "message": "hi"}, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := postJSON(t, router, "/chat", tc.payload)
		if rec.Code != tc.status {
			t.Fatalf("%s: status = %d, want %d", tc.name, rec.Code, tc.status)
		}
	}

	rec := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, rec)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", w.Code)
	}
}

func TestChatEndpointDegradedStill200(t *testing.T) {
	srv, ks, hs := newTestServer(t, &flakyGateway{err: &llm.Error{Kind: llm.KindUnavailable, Reason: "down"}})
	user := ks.AddUser(knowledge.Profile{Name: "Jane"})
	router := srv.Router()

	rec := postJSON(t, router, "/chat", map[string]any{"user_id": user.ID, "message": "hi"})
	if rec.Code != http.StatusOK {
		t.Fatalf("degraded POST /chat status = %d, want 200", rec.Code)
	}
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != chat.FallbackText {
		t.Fatalf("response = %q, want fallback text", resp.Response)
	}
	turns, _ := hs.Load(context.Background(), resp.ConversationID)
	if len(turns) != 1 {
		t.Fatalf("conversation has %d turns, want 1 (user only)", len(turns))
	}
}

func TestHistoryEndpoint(t *testing.T) {
	srv, ks, _ := newTestServer(t, &flakyGateway{reply: "sure"})
	user := ks.AddUser(knowledge.Profile{Name: "Jane"})
	router := srv.Router()

	rec := postJSON(t, router, "/chat", map[string]any{"user_id": user.ID, "message": "hello"})
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/history/"+resp.ConversationID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /history status = %d", w.Code)
	}
	var msgs []messageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
}

func TestProductCRUDEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/products", knowledge.Product{Name: "Cereal Cap", Description: "Breakfast themed", Price: 3.5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /products status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created knowledge.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created product: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var listed []knowledge.Product
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode product list: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Cereal Cap" {
		t.Fatalf("unexpected product list: %+v", listed)
	}

	req = httptest.NewRequest(http.MethodDelete, "/products/999", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("DELETE missing product status = %d, want 404", w.Code)
	}

	rec = postJSON(t, router, "/products", knowledge.Product{Name: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /products with blank name status = %d, want 400", rec.Code)
	}
}

func TestRulesEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	router := srv.Router()

	rec := postJSON(t, router, "/referral-rules", knowledge.Rule{Description: "One bonus per friend."})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /referral-rules status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/referral-rules", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var rules []knowledge.Rule
	if err := json.Unmarshal(w.Body.Bytes(), &rules); err != nil {
		t.Fatalf("decode rules: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("rules = %+v, want 1 entry", rules)
	}
}

func TestChatWebsocketRoundTrip(t *testing.T) {
	srv, ks, _ := newTestServer(t, &flakyGateway{reply: "pong"})
	user := ks.AddUser(knowledge.Profile{Name: "Jane"})

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(chatRequest{UserID: user.ID, Message: "ping"}); err != nil {
		t.Fatalf("write ws frame: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read ws frame: %v", err)
	}
	if resp.Response != "pong" || resp.ConversationID == "" {
		t.Fatalf("unexpected ws response: %+v", resp)
	}

	// Validation failures arrive as error frames and keep the socket open.
	if err := conn.WriteJSON(chatRequest{UserID: user.ID, Message: "  "}); err != nil {
		t.Fatalf("write ws frame: %v", err)
	}
	var werr wsError
	if err := conn.ReadJSON(&werr); err != nil {
		t.Fatalf("read ws error frame: %v", err)
	}
	if werr.Error != string(chat.CodeInvalidInput) {
		t.Fatalf("ws error = %q, want %s", werr.Error, chat.CodeInvalidInput)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	router := srv.Router()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}
