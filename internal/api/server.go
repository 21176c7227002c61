package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"idlegalaxy/internal/config"
	"idlegalaxy/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrMissingRoute = errors.New("trigger route not registered")
	ErrKeyReuse     = errors.New("idempotency key reused for a different action")
)

const idempotencyWindow = 1024

// Engine is the part of the game service the HTTP layer drives.
type Engine interface {
	Do(a game.Action) (bool, error)
	View() game.View
}

type Server struct {
	cfg     config.ServerConfig
	log     *slog.Logger
	game    Engine
	mux     *chi.Mux
	seen    *lru.Cache[string, ActionResult]
	limits  *limiter
	closing chan struct{}
	once    sync.Once
	// mu makes the idempotency check and the engine call one step.
	mu sync.Mutex
}

// ActionResult is the response body of every trigger route.
type ActionResult struct {
	Action         game.Action `json:"action"`
	Changed        bool        `json:"changed"`
	Replayed       bool        `json:"replayed"`
	IdempotencyKey string      `json:"idempotency_key"`
	State          game.View   `json:"state"`
}

var actionPaths = map[game.Action]string{
	game.ActionBuyGenerator: "/v1/generator/purchase",
	game.ActionBuyBoost:     "/v1/boost/purchase",
	game.ActionFirstReset:   "/v1/reset",
	game.ActionBuyGalaxy:    "/v1/galaxy/purchase",
	game.ActionMaxGalaxies:  "/v1/galaxy/max",
}

// ActionPath is the POST route for a trigger.
func ActionPath(a game.Action) string {
	return actionPaths[a]
}

func New(cfg config.ServerConfig, logger *slog.Logger, engine Engine) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	seen, _ := lru.New[string, ActionResult](idempotencyWindow)
	s := &Server{
		cfg:     cfg,
		log:     logger,
		game:    engine,
		mux:     chi.NewRouter(),
		seen:    seen,
		limits:  newLimiter(cfg.RateLimit, cfg.RateBurst),
		closing: make(chan struct{}),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Close ends open state streams. Safe to call more than once.
func (s *Server) Close() {
	s.once.Do(func() { close(s.closing) })
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Long-lived; kept out of the request timeout.
	r.Get("/v1/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
		r.Get("/v1/state", s.handleState)

		r.Group(func(r chi.Router) {
			r.Use(s.limits.middleware)
			for _, a := range game.Actions() {
				r.Post(ActionPath(a), s.handleAction(a))
			}
			r.Post("/v1/sync/replay", s.handleSyncReplay)
		})
	})
}

// CheckRoutes fails when any trigger has no POST route, so a server never
// starts with a button that does nothing.
func (s *Server) CheckRoutes() error {
	registered := map[string]bool{}
	err := chi.Walk(s.mux, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk routes: %w", err)
	}
	var missing []string
	for _, a := range game.Actions() {
		path := ActionPath(a)
		if path == "" || !registered[http.MethodPost+" "+path] {
			missing = append(missing, string(a))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingRoute, strings.Join(missing, ", "))
	}
	return nil
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.View())
}

func (s *Server) handleAction(a game.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.trigger(a, idempotencyKey(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// trigger runs a once per idempotency key. A repeated key returns the
// first result without touching the engine again.
func (s *Server) trigger(a game.Action, key string) (ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.seen.Get(key); ok {
		if prev.Action != a {
			return ActionResult{}, fmt.Errorf("%w: key %s was used for %s", ErrKeyReuse, key, prev.Action)
		}
		prev.Replayed = true
		return prev, nil
	}
	changed, err := s.game.Do(a)
	if err != nil {
		return ActionResult{}, err
	}
	res := ActionResult{
		Action:         a,
		Changed:        changed,
		IdempotencyKey: key,
		State:          s.game.View(),
	}
	s.seen.Add(key, res)
	s.log.Debug("trigger handled", "action", a, "changed", changed, "idempotency_key", key)
	return res, nil
}

type replayCommand struct {
	Action         string    `json:"action"`
	IdempotencyKey string    `json:"idempotency_key"`
	QueuedAt       time.Time `json:"queued_at"`
}

type replayResult struct {
	Action         string `json:"action"`
	IdempotencyKey string `json:"idempotency_key"`
	Changed        bool   `json:"changed"`
	Replayed       bool   `json:"replayed"`
	Error          string `json:"error,omitempty"`
}

func (s *Server) handleSyncReplay(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Commands []replayCommand `json:"commands"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]replayResult, 0, len(in.Commands))
	for _, cmd := range in.Commands {
		key := strings.TrimSpace(cmd.IdempotencyKey)
		if key == "" {
			key = uuid.NewString()
		}
		item := replayResult{Action: cmd.Action, IdempotencyKey: key}
		if !cmd.QueuedAt.IsZero() {
			s.log.Info("replaying queued trigger", "action", cmd.Action, "idempotency_key", key, "queued_for", time.Since(cmd.QueuedAt).Round(time.Second).String())
		}
		a, err := game.ParseAction(cmd.Action)
		if err == nil {
			var res ActionResult
			res, err = s.trigger(a, key)
			item.Changed, item.Replayed = res.Changed, res.Replayed
		}
		if err != nil {
			item.Error = err.Error()
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out, "state": s.game.View()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownAction):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrKeyReuse):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}
