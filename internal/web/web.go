package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"famcal/internal/feed"
	appLog "famcal/internal/log"
	"famcal/internal/member"
	"famcal/internal/model"
)

// Refresher is the controller surface the HTTP layer depends on.
type Refresher interface {
	Snapshot() model.Snapshot
	Refresh(ctx context.Context) error
}

// Server exposes the display API: the published event set and refresh
// status, a manual retry action, the member directory, and the
// shared-secret feed proxy.
type Server struct {
	controller Refresher
	directory  *member.Directory
	feedClient *feed.Client
	secret     string
	router     *mux.Router
}

// feedCacheControl is the short-lived cache directive on proxied feed
// responses, keeping repeated display-layer loads off the upstream.
const feedCacheControl = "public, max-age=300"

// NewServer constructs the HTTP server around its collaborators.
func NewServer(controller Refresher, directory *member.Directory, feedClient *feed.Client, secret string) *Server {
	s := &Server{
		controller: controller,
		directory:  directory,
		feedClient: feedClient,
		secret:     secret,
		router:     mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/api/refresh", s.handleRefresh).Methods(http.MethodPost)
	s.router.HandleFunc("/api/members", s.handleMembers).Methods(http.MethodGet)
	s.router.HandleFunc("/api/feed", s.handleFeed).Methods(http.MethodGet, http.MethodOptions)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleEvents returns the full published snapshot: the ordered event
// instances plus refresh status.
func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleStatus returns the snapshot without the event payload.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.controller.Snapshot()
	snap.Events = nil
	writeJSON(w, http.StatusOK, snap)
}

// handleRefresh triggers a manual out-of-schedule pipeline run and
// returns the resulting snapshot. The run's failure is reflected in the
// snapshot state rather than the HTTP status; the display layer decides
// what to show.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Refresh(r.Context()); err != nil {
		appLog.Debug("manual refresh failed", "err", err.Error())
	}
	writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

func (s *Server) handleMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.directory.Members())
}

// handleFeed is the authenticated proxy surface: it checks the shared
// secret, answers CORS preflight, fetches the upstream feed, and streams
// the raw ICS text through with a short-lived cache directive.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", feed.SecretHeader)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if !secureCompare(r.Header.Get(feed.SecretHeader), s.secret) {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+feed.SecretHeader)
		return
	}

	body, err := s.feedClient.Fetch(r.Context())
	if err != nil {
		var fe *feed.FetchError
		status := http.StatusBadGateway
		if errors.As(err, &fe) && fe.Kind == feed.KindConfig {
			status = http.StatusInternalServerError
		}
		appLog.Error("feed proxy fetch failed", err)
		writeError(w, status, "upstream feed unavailable")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", feedCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
