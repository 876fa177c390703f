// Package api exposes the lobby's REST surface: account endpoints that
// issue session tokens, the online-players view, history search, a status
// probe, and the websocket upgrade path.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "lobby-chat/errors"
	"lobby-chat/observability"
	"lobby-chat/services"
	ws "lobby-chat/transport/websocket"

	"github.com/gorilla/mux"
)

// Server wires the HTTP routes.
type Server struct {
	log         *slog.Logger
	auth        services.IAuthService
	lobby       services.ILobbyService
	monitor     *observability.Monitor
	wsHandler   *ws.Handler
	searchLimit int
	router      *mux.Router
}

func NewServer(log *slog.Logger, auth services.IAuthService, lobby services.ILobbyService,
	monitor *observability.Monitor, wsHandler *ws.Handler, searchLimit int) *Server {
	s := &Server{
		log:         log,
		auth:        auth,
		lobby:       lobby,
		monitor:     monitor,
		wsHandler:   wsHandler,
		searchLimit: searchLimit,
		router:      mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/registration", s.handleRegistration).Methods("POST")
	api.HandleFunc("/users", s.handleUsers).Methods("GET")
	api.HandleFunc("/messages/search", s.handleSearch).Methods("GET")
	api.HandleFunc("/status", s.handleStatus).Methods("GET")

	s.router.HandleFunc("/ws", s.wsHandler.ServeWS)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password cannot be empty.")
		return
	}

	token, err := s.auth.Login(req.Username, req.Password)
	if err != nil {
		s.log.Info("Login failed", "username", req.Username, "err", err)
		respondError(w, http.StatusUnauthorized, "Incorrect username or password.")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": string(token)})
}

func (s *Server) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password cannot be empty.")
		return
	}

	token, err := s.auth.Register(req.Username, req.Password)
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		respondError(w, http.StatusConflict, "Username already exists.")
		return
	case errors.Is(err, apperrors.ErrInvalidPassword):
		respondError(w, http.StatusBadRequest, "Password does not meet complexity rules.")
		return
	case err != nil:
		s.log.Error("Registration failed", "username", req.Username, "err", err)
		respondError(w, http.StatusInternalServerError, "Registration failed.")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"token": string(token)})
}

// handleUsers lists currently connected players.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.lobby.OnlineUsers())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	terms := r.URL.Query().Get("q")
	if terms == "" {
		respondError(w, http.StatusBadRequest, "Missing query parameter 'q'.")
		return
	}

	limit := s.searchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > s.searchLimit {
			respondError(w, http.StatusBadRequest, "Invalid limit.")
			return
		}
		limit = parsed
	}

	messages, err := s.lobby.SearchMessages(r.Context(), terms, limit)
	if err != nil {
		s.log.Error("Search failed", "terms", terms, "err", err)
		respondError(w, http.StatusInternalServerError, "Search failed.")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.monitor.Snapshot(len(s.lobby.OnlineUsers()))
	if err != nil {
		s.log.Error("Failed to collect stats", "err", err)
		respondError(w, http.StatusInternalServerError, "Stats unavailable.")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
