// Package httpapi is the HTTP gateway: the REST endpoints that feed the
// realtime core plus the SSE transport for realtime connections.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"talkboard/auth"
	"talkboard/errors"
	"talkboard/repositories"
	"talkboard/runtime"
	"talkboard/sink"
)

type Server struct {
	log        *slog.Logger
	dispatcher *runtime.Dispatcher
	groups     repositories.IGroupRepository
	messages   repositories.IMessageRepository
	directs    repositories.IDirectRepository
	alerts     repositories.IAlertRepository
	tokens     *auth.TokenManager

	connBufferSize int

	mu    sync.RWMutex
	conns map[string]*sink.Conn
}

func NewServer(
	log *slog.Logger,
	dispatcher *runtime.Dispatcher,
	groups repositories.IGroupRepository,
	messages repositories.IMessageRepository,
	directs repositories.IDirectRepository,
	alerts repositories.IAlertRepository,
	tokens *auth.TokenManager,
	connBufferSize int,
) *Server {
	return &Server{
		log:            log,
		dispatcher:     dispatcher,
		groups:         groups,
		messages:       messages,
		directs:        directs,
		alerts:         alerts,
		tokens:         tokens,
		connBufferSize: connBufferSize,
		conns:          make(map[string]*sink.Conn),
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/rt/stream", s.handleStream).Methods(http.MethodGet)
	r.HandleFunc("/rt/connections/{id}/events", s.handleInboundEvent).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(s.tokens))
	api.HandleFunc("/groups", s.handleListGroups).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}", s.handleGetGroup).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/join", s.handleJoinGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/leave", s.handleLeaveGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/messages", s.handleCreateGroupMessage).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/messages", s.handleListGroupMessages).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.handleCreateAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/active", s.handleActiveAlerts).Methods(http.MethodGet)
	api.HandleFunc("/alerts/{id}/resolve", s.handleResolveAlert).Methods(http.MethodPost)
	api.HandleFunc("/alerts/{id}/cancel", s.handleCancelAlert).Methods(http.MethodPost)
	api.HandleFunc("/direct", s.handleSendDirect).Methods(http.MethodPost)
	api.HandleFunc("/direct/{userID}", s.handleConversation).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addConn(conn *sink.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn.ID()] = conn
}

func (s *Server) removeConn(conn *sink.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn.ID())
}

func (s *Server) conn(id string) (*sink.Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conn, ok := s.conns[id]
	return conn, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.MapToHTTPStatus(err), map[string]string{"error": err.Error()})
}
