package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"decko/internal/content"
	"decko/internal/studio"
)

const (
	SessionCookie = "decko_session"
	maxBodyBytes  = 2*content.MaxImageBytes + 1<<20
)

type Options struct {
	AllowedOrigins []string
	RateLimit      float64
	Burst          int
	SessionTTL     time.Duration
}

// Server exposes studio sessions over a JSON API. Each browser gets its own
// session through the decko_session cookie.
type Server struct {
	sessions *studio.Store
	limiter  *rate.Limiter
	opts     Options
}

func New(sessions *studio.Store, opts Options) *Server {
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		sessions: sessions,
		limiter:  rate.NewLimiter(limit, burst),
		opts:     opts,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/key", s.handleKeyStatus)
	mux.HandleFunc("POST /api/key", s.handleSelectKey)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/draft", s.handleDraft)
	mux.HandleFunc("POST /api/studio", s.handleStudio)
	mux.HandleFunc("POST /api/images/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/images/edit", s.handleEdit)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	return logRequests(c.Handler(s.rateLimit(mux)))
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving studio API", "addr", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *studio.Session {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	id, sess, created := s.sessions.Get(id)
	// sliding expiry, matching the store TTL
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
	})
	if created {
		sess.Init(r.Context())
		slog.Debug("Session created", "sessions", s.sessions.Len())
	}
	return sess
}

type errorResponse struct {
	Error  string `json:"error"`
	Reauth bool   `json:"reauth"`
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var ue *studio.UserError
	var br badRequest

	switch {
	case errors.Is(err, studio.ErrReauthRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "API key rejected. Please select a key from a paid project.", Reauth: true})
	case errors.As(err, &ue):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: ue.Message})
	case errors.As(err, &br):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: br.msg})
	default:
		slog.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error."})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return badRequest{msg: "invalid request body"}
	}
	return nil
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.limiter.Allow() {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "Too many requests. Please slow down."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
