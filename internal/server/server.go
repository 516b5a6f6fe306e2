package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rgoodwin/tasktally/internal/archive"
	"github.com/rgoodwin/tasktally/internal/dates"
	"github.com/rgoodwin/tasktally/internal/handler"
	"github.com/rgoodwin/tasktally/internal/middleware"
	"github.com/rgoodwin/tasktally/internal/store"
	ws "github.com/rgoodwin/tasktally/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	userH       *handler.UserHandler
	templateH   *handler.TemplateHandler
	rewardH     *handler.RewardHandler
	dayH        *handler.DayHandler
	snapshotH   *handler.SnapshotHandler
	rateLimiter *middleware.RateLimiter
	archiveMgr  *archive.Manager
	logger      *slog.Logger
}

func New(db *sql.DB, clock *dates.Clock, archiveCfg archive.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	rewardStore := store.NewRewardStore(db)
	snapshotStore := store.NewSnapshotStore(db)

	archiveMgr := archive.NewManager(archiveCfg, db, snapshotStore, logger.With("component", "archive"))

	return &Server{
		db:          db,
		hub:         hub,
		userH:       handler.NewUserHandler(userStore),
		templateH:   handler.NewTemplateHandler(templateStore, hub),
		rewardH:     handler.NewRewardHandler(rewardStore, hub),
		dayH:        handler.NewDayHandler(userStore, templateStore, rewardStore, clock, hub),
		snapshotH:   handler.NewSnapshotHandler(archiveMgr, snapshotStore),
		rateLimiter: middleware.NewRateLimiter(),
		archiveMgr:  archiveMgr,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// ArchiveManager returns the snapshot manager for retention tasks.
func (s *Server) ArchiveManager() *archive.Manager {
	return s.archiveMgr
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// User creation is unauthenticated, keep it rate limited
	mux.HandleFunc("POST /api/users", s.rateLimitedHandler(s.userH.Upsert))

	mux.HandleFunc("GET /api/users/{id}/templates", s.templateH.List)
	mux.HandleFunc("POST /api/templates", s.templateH.Create)
	mux.HandleFunc("PUT /api/templates/{id}", s.templateH.Update)
	mux.HandleFunc("DELETE /api/templates/{id}", s.templateH.Delete)
	mux.HandleFunc("POST /api/templates/move", s.templateH.Move)
	mux.HandleFunc("PUT /api/templates/reorder", s.templateH.Reorder)

	mux.HandleFunc("GET /api/users/{id}/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/move", s.rewardH.Move)
	mux.HandleFunc("PUT /api/rewards/reorder", s.rewardH.Reorder)

	mux.HandleFunc("GET /api/users/{id}/today", s.dayH.Today)
	mux.HandleFunc("POST /api/completions/toggle", s.dayH.Toggle)
	mux.HandleFunc("POST /api/redeem", s.dayH.Redeem)
	mux.HandleFunc("GET /api/users/{id}/analytics", s.dayH.Analytics)

	mux.HandleFunc("POST /api/snapshots", s.snapshotH.Run)
	mux.HandleFunc("GET /api/snapshots", s.snapshotH.List)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
