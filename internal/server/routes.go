package server

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/groupplay/invitequest/internal/engine"
)

// pinger is the subset of *sql.DB the health check needs.
type pinger interface {
	PingContext(ctx context.Context) error
}

func addRoutes(r chi.Router, logger *slog.Logger, eng *engine.Engine, store Store, db pinger) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("InviteQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))
	r.Get("/ws/echo", handleWSEcho(logger))

	// Game engine — called by the chat transport.
	r.Route("/api", func(r chi.Router) {
		r.Post("/players", handleRegister(eng))
		r.Get("/players/{userID}", handleProfile(eng))
		r.Post("/players/{userID}/game", handleForceGame(eng, broker))
		r.Get("/leaderboard", handleLeaderboard(eng))

		r.Post("/events/member", handleMemberEvent(eng, broker))
		r.Post("/events/message", handleMessageEvent(eng, broker))
		r.Get("/events", handleEvents(broker))

		r.Get("/groups/{groupID}/members/{userID}/access", handleGateCheck(eng, store))
	})

	// Admin — group threshold management behind cookie auth.
	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))

	r.Route("/api/admin/groups", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))
		r.Get("/{groupID}/threshold", handleGetThreshold(store))
		r.Put("/{groupID}/threshold", handleSetThreshold(store, logger))
	})
}
