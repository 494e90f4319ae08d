package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"budgetbuddy/internal/log"
	"budgetbuddy/internal/middleware/ratelimit"
	"budgetbuddy/internal/middleware/security"
	"budgetbuddy/internal/middleware/trace"
	"budgetbuddy/internal/services"
	appweb "budgetbuddy/web"
)

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
	// Ready reports whether the session store can serve requests.
	Ready func(ctx context.Context) error
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

type Server struct {
	http.Server
	templates *template.Template
	svc       *services.BudgetService
	logger    *log.Logger
	ready     func(ctx context.Context) error
	secure    bool
	startedAt time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	metrics          appMetrics
}

func NewServer(addr string, svc *services.BudgetService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	tmpl, err := template.New("").Funcs(templateFuncs(svc.Symbol())).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		templates:        tmpl,
		svc:              svc,
		logger:           logger,
		ready:            opts.Ready,
		secure:           opts.SecureCookies,
		startedAt:        time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute, CleanupInterval: 5 * time.Minute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ClientIP, logger),
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(sub)))))

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// session-scoped routes
	app := http.NewServeMux()
	app.HandleFunc("/", s.handleIndex)
	app.HandleFunc("/entries", s.handleCreateEntry)
	app.HandleFunc("/caps", s.handleSetCaps)
	app.HandleFunc("/ui/overview", s.handleOverview)
	app.HandleFunc("/ui/entries", s.handleEntries)
	app.HandleFunc("/api/overview", s.handleAPIOverview)
	app.HandleFunc("/session/reset", s.handleSessionReset)
	mux.Handle("/", s.sessionMiddleware(app))

	limit := s.rateLimiter.Middleware(detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, detector.ClientIP(r), log.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again in a minute.").Write(w)
	})
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = log.Middleware(logger)(handler)
	handler = limit(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops the HTTP server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	return s.Server.Shutdown(ctx)
}
