// Package serve exposes the archived JSON files over HTTP with permissive
// CORS headers, so browser clients on other origins can read the feeds.
package serve

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server serves a directory of archived price files.
type Server struct {
	root   string
	logger *slog.Logger
}

func NewServer(root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{root: root, logger: logger}
}

// Handler builds the HTTP handler: a file server wrapped in CORS, cache
// control and request logging.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.PathPrefix("/").Handler(noCacheIndexes(http.FileServer(http.Dir(s.root)))).Methods("GET", "HEAD", "OPTIONS")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "HEAD", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"*"}),
	)

	return handlers.LoggingHandler(os.Stdout, cors(r))
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("serving archive", "addr", addr, "root", s.root)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// noCacheIndexes disables caching for the index and stats files. They are
// rewritten in place after every ingest run, so clients must revalidate.
func noCacheIndexes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "index.json") || strings.HasSuffix(r.URL.Path, "stats.json") {
			w.Header().Set("Cache-Control", "no-cache")
		}
		next.ServeHTTP(w, r)
	})
}
