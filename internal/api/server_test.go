package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"idlegalaxy/internal/bignum"
	"idlegalaxy/internal/clock"
	"idlegalaxy/internal/config"
	"idlegalaxy/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var start = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, st *game.State, cfg config.ServerConfig) (*Server, *game.Service) {
	t.Helper()
	if st == nil {
		st = game.NewState(start)
	}
	svc := game.NewService(st, clock.NewFake(start), nil)
	if cfg.StreamEvery == 0 {
		cfg.StreamEvery = 10 * time.Millisecond
	}
	return New(cfg, nil, svc), svc
}

func post(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) ActionResult {
	t.Helper()
	var res ActionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return res
}

func TestCheckRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil, config.ServerConfig{})
	if err := s.CheckRoutes(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.mux = chi.NewRouter()
	s.mux.Post(ActionPath(game.ActionBuyGenerator), s.handleAction(game.ActionBuyGenerator))
	err := s.CheckRoutes()
	if !errors.Is(err, ErrMissingRoute) {
		t.Fatalf("got err %v want %v", err, ErrMissingRoute)
	}
	if !strings.Contains(err.Error(), "max_galaxies") {
		t.Fatalf("missing route not named: %v", err)
	}
}

func TestHealthAndState(t *testing.T) {
	s, _ := newTestServer(t, nil, config.ServerConfig{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz got %d want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("state got %d want 200", rec.Code)
	}
	var v game.View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if !v.Points.Eq(bignum.One) || !v.Generator.Cost.Eq(bignum.One) {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestTriggerRoutes(t *testing.T) {
	s, svc := newTestServer(t, nil, config.ServerConfig{})
	h := s.Handler()

	rec := post(t, h, ActionPath(game.ActionBuyGenerator), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d want 200: %s", rec.Code, rec.Body.String())
	}
	res := decodeResult(t, rec)
	if !res.Changed || res.Action != game.ActionBuyGenerator {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !res.State.Generator.Level.Eq(bignum.One) {
		t.Fatalf("generator level got %s want 1", res.State.Generator.Level)
	}

	// Locked and unaffordable triggers are silent no-ops, not errors.
	for _, a := range []game.Action{game.ActionBuyBoost, game.ActionFirstReset, game.ActionBuyGalaxy, game.ActionMaxGalaxies} {
		rec := post(t, h, ActionPath(a), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s got %d want 200", a, rec.Code)
		}
		if decodeResult(t, rec).Changed {
			t.Fatalf("%s should not change a fresh game", a)
		}
	}
	if !svc.Snapshot().GeneratorLevel.Eq(bignum.One) {
		t.Fatalf("engine state drifted")
	}
}

func TestTriggerIdempotency(t *testing.T) {
	st := game.NewState(start)
	st.Points = bignum.New(1000)
	s, svc := newTestServer(t, st, config.ServerConfig{})
	h := s.Handler()

	first := decodeResult(t, post(t, h, ActionPath(game.ActionBuyGenerator), "k-1"))
	second := decodeResult(t, post(t, h, ActionPath(game.ActionBuyGenerator), "k-1"))
	if first.Replayed || !second.Replayed {
		t.Fatalf("got replayed %v/%v want false/true", first.Replayed, second.Replayed)
	}
	if !svc.Snapshot().GeneratorLevel.Eq(bignum.One) {
		t.Fatalf("duplicate key applied twice: level %s", svc.Snapshot().GeneratorLevel)
	}

	rec := post(t, h, ActionPath(game.ActionBuyBoost), "k-1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("key reuse got %d want 409", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := newTestServer(t, nil, config.ServerConfig{RateLimit: 0.001, RateBurst: 2})
	h := s.Handler()
	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, ActionPath(game.ActionBuyBoost), nil)
		req.Header.Set("X-Client-ID", "cli-a")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("got codes %v want [200 200 429]", codes)
	}

	req := httptest.NewRequest(http.MethodPost, ActionPath(game.ActionBuyBoost), nil)
	req.Header.Set("X-Client-ID", "cli-b")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client got %d want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reads should not be limited, got %d", rec.Code)
	}
}

func TestSyncReplay(t *testing.T) {
	st := game.NewState(start)
	st.Points = bignum.New(6)
	s, svc := newTestServer(t, st, config.ServerConfig{})

	body := `{"commands":[
		{"action":"buy_generator","idempotency_key":"a"},
		{"action":"buy_generator","idempotency_key":"a"},
		{"action":"buy_generator","idempotency_key":"b"},
		{"action":"warp_drive","idempotency_key":"c"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/replay", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d want 200: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Results []replayResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Results) != 4 {
		t.Fatalf("got %d results want 4", len(out.Results))
	}
	if !out.Results[0].Changed || !out.Results[1].Replayed || !out.Results[2].Changed || out.Results[3].Error == "" {
		t.Fatalf("unexpected results: %+v", out.Results)
	}
	// 6 points: generator costs 1 then 5.
	if got := svc.Snapshot().GeneratorLevel; !got.Eq(bignum.New(2)) {
		t.Fatalf("generator got %s want 2", got)
	}
}

func TestSyncReplayRejectsBadBody(t *testing.T) {
	s, _ := newTestServer(t, nil, config.ServerConfig{})
	req := httptest.NewRequest(http.MethodPost, "/v1/sync/replay", strings.NewReader(`{"cmds":[]}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400", rec.Code)
	}
}

func TestStream(t *testing.T) {
	s, _ := newTestServer(t, nil, config.ServerConfig{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type  string    `json:"type"`
			State game.View `json:"state"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if msg.Type != "state" || !msg.State.Points.Eq(bignum.One) {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}

	s.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
				t.Fatalf("got %v want going-away close", err)
			}
			break
		}
	}
}
