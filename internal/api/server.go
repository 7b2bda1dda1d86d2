package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/events"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Logger         *log.Logger
	RequestTimeout time.Duration
	// Hub feeds /ws/events. Without one the stream only replays the stored log.
	Hub *events.Hub
}

// Server handles HTTP requests
type Server struct {
	contract     *contract.Contract
	db           Pinger
	hub          *events.Hub
	schemas      schemaSet
	errorHandler *ErrorHandler
	logger       *log.Logger
	timeout      time.Duration
	upgrader     websocket.Upgrader
	startTime    time.Time
}

// NewServer creates a new API server
func NewServer(k *contract.Contract, db Pinger, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		contract:     k,
		db:           db,
		hub:          opts.Hub,
		schemas:      schemas,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		timeout:      opts.RequestTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		startTime: time.Now(),
	}
	logger.Printf("server_initialized version=%s schemas=%d live_events=%t", EngineVersion, len(schemas), s.hub != nil)
	return s, nil
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, ErrTypeNotFound, "route not found", map[string]any{"path": r.URL.Path})
	})

	// Streams outlive the request timeout.
	r.Get("/ws/events", s.handleEventStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Get("/health", s.handleHealthCheck)
		r.Get("/health/ready", s.handleReadiness)
		r.Get("/health/live", s.handleLiveness)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/version", s.handleVersion)
			r.Get("/metadata", s.handleContractMetadata)
			r.Get("/events", s.handleEvents)

			r.Route("/signers", func(r chi.Router) {
				r.Get("/", s.handleListSigners)
				r.Post("/", s.handleAddSigner)
				r.Delete("/{key}", s.handleRemoveSigner)
			})

			r.Route("/karts", func(r chi.Router) {
				r.Get("/", s.handleKarts)
				r.Post("/", s.handleMint)
				r.Route("/{tokenID}", func(r chi.Router) {
					r.Get("/", s.handleToken)
					r.Get("/metadata", s.handleTokenMetadata)
					r.Get("/title", s.handleTokenTitle)
					r.Get("/config", s.handleGetConfig)
					r.Put("/config", s.handleConfigure)
					r.Post("/upgrade", s.handleUpgrade)
					r.Post("/battle", s.handleBattle)
					r.Post("/opponent", s.handleOpponent)
					r.Post("/transfer", s.handleTransfer)
				})
			})

			r.Route("/accounts/{accountID}", func(r chi.Router) {
				r.Get("/last-battle", s.handleLastBattle)
				r.Get("/karts", s.handleOwnerKarts)
			})
		})
	})

	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Printf("request_completed request_id=%s method=%s path=%s status=%d bytes=%d duration=%s",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_encode_failed status=%d error=%v", status, err)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string, context map[string]any) {
	errorResponse := EngineError{
		Type:      errType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	s.writeJSON(w, status, errorResponse)
}
