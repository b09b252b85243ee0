// Package server exposes the comment generator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/forecast"
	"github.com/wxcomment/wxcomment-go/history"
	"github.com/wxcomment/wxcomment-go/location"
	"github.com/wxcomment/wxcomment-go/workflow"
)

// Generator is the workflow surface the API drives.
type Generator interface {
	Generate(ctx context.Context, req workflow.Request) (*workflow.Result, error)
}

// WeatherSource serves the raw forecast endpoint.
type WeatherSource interface {
	Get(ctx context.Context, loc location.Location, target time.Time) (forecast.Result, error)
}

// Server routes the HTTP API.
type Server struct {
	cfg       config.Config
	locations *location.Table
	weather   WeatherSource
	gen       Generator
	hist      history.Store
	log       *zap.Logger
	router    *mux.Router
	validate  *validator.Validate
	now       func() time.Time

	// previous tracks the last emitted texts per location for the
	// excludePrevious request flag.
	mu       sync.Mutex
	previous map[string][]string
}

// New wires the routes. hist may be nil when history is disabled.
func New(
	cfg config.Config,
	locations *location.Table,
	weather WeatherSource,
	gen Generator,
	hist history.Store,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		locations: locations,
		weather:   weather,
		gen:       gen,
		hist:      hist,
		log:       log,
		validate:  validator.New(),
		now:       time.Now,
		previous:  make(map[string][]string),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.logMiddleware, s.corsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/locations", s.handleLocations).Methods(http.MethodGet)
	api.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/weather/{locationId}", s.handleWeather).Methods(http.MethodGet)

	s.router = r
}

// Handler returns the root handler for mounting or testing.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until the context is canceled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := s.allowOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}

func (s *Server) previousTexts(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := s.previous[name]
	out := make([]string, len(texts))
	copy(out, texts)
	return out
}

func (s *Server) rememberTexts(name string, texts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.previous[name] = texts
}

// apiError is the stable error shape.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type errorResponse struct {
	Error     apiError  `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message, details string) {
	s.writeJSON(w, status, errorResponse{
		Error:     apiError{Code: code, Message: message, Details: details},
		Timestamp: s.now().UTC(),
	})
}

// apiCodeFor maps workflow error codes onto the API's stable set.
func apiCodeFor(code string) string {
	switch code {
	case workflow.CodeLocationNotFound:
		return "NOT_FOUND"
	case workflow.CodeWeatherFetchError:
		return "WEATHER_FETCH"
	case workflow.CodeLLMError:
		return "LLM_ERROR"
	case workflow.CodeTimeoutError:
		return "TIMEOUT"
	default:
		return "INTERNAL"
	}
}
