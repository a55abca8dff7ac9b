// Package http exposes the Telegram webhook and the health probes.
package http

import (
	"context"
	"net/http"
	"time"

	"chatledger/internal/bot"
	"chatledger/internal/core"
	applog "chatledger/internal/log"
	"chatledger/internal/middleware/trace"
)

// MessageHandler turns one inbound message into one reply.
type MessageHandler interface {
	Handle(ctx context.Context, msg core.Message) (bot.Reply, error)
}

// Sender delivers replies to the chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, choices []string) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Handler       MessageHandler
	Sender        Sender
	Ready         Pinger
	WebhookSecret string
	Logger        *applog.Logger
}

type Server struct {
	http.Server
	deps  Deps
	trace *trace.Middleware
}

const (
	maxUpdateBytes = 1 << 20
	sendTimeout    = 10 * time.Second
	readyTimeout   = 2 * time.Second
)

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{deps: deps}
	s.trace = trace.NewMiddleware(deps.Logger, extractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.trace.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
