package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"duit/internal/cache"
	"duit/internal/core"
	"duit/internal/events"
	"duit/internal/ledger"
	"duit/internal/log"
	"duit/internal/middleware/trace"
	appweb "duit/web"
)

// Suggester produces per-category budget recommendations from the
// transaction history.
type Suggester interface {
	Suggest(ctx context.Context, history []core.Transaction) (map[string]core.Money, error)
}

// EventPublisher announces ledger mutations to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

type Server struct {
	http.Server
	templates *template.Template
	ledger    *ledger.Ledger
	suggester Suggester
	publisher EventPublisher
	logger    *log.Logger

	rateLimiter *rateLimiter

	// Derived analytics views are cheap to rebuild but requested on every
	// dashboard load, so they sit behind a small LRU that mutations clear.
	analyticsCache *cache.LRUCache[analyticsView]
	cacheManager   *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. ratePerMin caps mutating requests per client IP per
// minute; zero or negative falls back to the default.
func NewServer(addr string, lg *ledger.Ledger, sg Suggester, pub EventPublisher, logger *log.Logger, ratePerMin int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:         lg,
		suggester:      sg,
		publisher:      pub,
		logger:         logger.WithComponent(log.ComponentHTTP),
		rateLimiter:    newRateLimiter(ratePerMin),
		analyticsCache: cache.NewLRUCache[analyticsView](100, 5*time.Minute),
		cacheManager:   cache.NewManager(),
	}

	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("GET /{$}", s.secure(s.handleDashboard))
	mux.HandleFunc("POST /transactions", s.secure(s.handleCreateTransaction))
	mux.HandleFunc("POST /transactions/{id}", s.secure(s.handleUpdateTransaction))
	mux.HandleFunc("POST /transactions/{id}/delete", s.secure(s.handleDeleteTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.secure(s.handleDeleteTransaction))
	mux.HandleFunc("GET /analytics", s.secure(s.handleAnalytics))
	mux.HandleFunc("GET /suggestions", s.secure(s.handleSuggestions))
	mux.HandleFunc("POST /suggestions/run", s.secure(s.handleRunSuggestions))
	mux.HandleFunc("GET /login", s.secure(s.handleLogin))
	mux.HandleFunc("GET /signup", s.secure(s.handleSignup))

	tracer := trace.NewMiddleware(logger, clientIP)
	requestID := log.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})
	s.Server.Handler = tracer.Middleware(log.Middleware(logger)(requestID(mux)))

	return s
}

// secure adds security headers and rate limiting for mutating requests.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next(w, r)
	}
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("ledger not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// publish announces a ledger mutation. The event pipeline is optional and
// best effort, a publish failure never fails the request.
func (s *Server) publish(ctx context.Context, msg events.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Event publish failed",
			log.FieldError, err, "kind", string(msg.Kind), log.FieldTxID, msg.ID)
	}
}

// invalidateViews drops derived analytics after any ledger mutation.
func (s *Server) invalidateViews() {
	s.analyticsCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
