package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/burrowgame/burrow/pkg/game"
	"github.com/burrowgame/burrow/pkg/log"
	"github.com/burrowgame/burrow/pkg/metrics"
	"github.com/burrowgame/burrow/pkg/version"
)

// Server is the admin HTTP surface: status and player introspection,
// on-demand saves and notifications, and the metrics endpoint. It is
// meant to be bound to an operator-only port.
type Server struct {
	port   int
	game   *game.GameServer
	server *http.Server
}

type NewServerOptions struct {
	Port int
	Game *game.GameServer
}

func NewServer(opts NewServerOptions) *Server {
	return &Server{
		port: opts.Port,
		game: opts.Game,
	}
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/players", s.handlePlayers).Methods(http.MethodGet)
	r.HandleFunc("/save", s.handleSave).Methods(http.MethodPost)
	r.HandleFunc("/notify", s.handleNotify).Methods(http.MethodPost)
	r.HandleFunc("/gamevars", s.handleGameVars).Methods(http.MethodPost)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: r,
	}
	log.Info("API server listening on port %d", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to serve API: %v", err)
	}
	return nil
}

type statusResponse struct {
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Levels   int    `json:"levels"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version:  version.Get(),
		Uptime:   s.game.Uptime().Round(time.Second).String(),
		Sessions: s.game.SessionCount(),
		Levels:   s.game.World().LevelCount(),
	})
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	names := s.game.Usernames()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.game.SaveWorld(r.Context()); err != nil {
		log.Error("failed to save world: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type notifyRequest struct {
	Message string `json:"message"`
	Ticks   int    `json:"ticks"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if req.Ticks <= 0 {
		req.Ticks = 120
	}
	s.game.BroadcastNotification(req.Message, req.Ticks)
	w.WriteHeader(http.StatusNoContent)
}

type gameVarsRequest struct {
	Creative  bool `json:"creative"`
	GameSpeed int  `json:"game_speed"`
}

func (s *Server) handleGameVars(w http.ResponseWriter, r *http.Request) {
	var req gameVarsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.game.SetGameVars(req.Creative, req.GameSpeed)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
