package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/groupplay/invitequest/internal/engine"
	"github.com/groupplay/invitequest/internal/quest"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "InviteQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the InviteQuest invite-gated game engine.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/echo
	getWSEcho, _ := r.NewOperationContext(http.MethodGet, "/ws/echo")
	getWSEcho.SetSummary("WebSocket echo")
	getWSEcho.SetDescription("Upgrades to a WebSocket connection that echoes messages back.")
	getWSEcho.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSEcho)

	// POST /api/players
	postPlayers, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	postPlayers.SetSummary("Register player")
	postPlayers.SetDescription("Registers a player at level 0. Idempotent: re-registering returns the existing record.")
	postPlayers.AddReqStructure(RegisterRequest{})
	postPlayers.AddRespStructure(quest.Player{}, openapi.WithHTTPStatus(http.StatusCreated))
	postPlayers.AddRespStructure(quest.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	postPlayers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postPlayers)

	// GET /api/players/{userID}
	getPlayer, _ := r.NewOperationContext(http.MethodGet, "/api/players/{userID}")
	getPlayer.SetSummary("Player profile")
	getPlayer.SetDescription("Returns the player's durable progress record.")
	getPlayer.AddReqStructure(struct {
		UserID int64 `path:"userID"`
	}{})
	getPlayer.AddRespStructure(quest.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlayer)

	// POST /api/players/{userID}/game
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/players/{userID}/game")
	postGame.SetSummary("Force game")
	postGame.SetDescription("Restarts the player's current game slot with a fresh prompt. No-op unless the player is mid-quest.")
	postGame.AddReqStructure(struct {
		UserID int64 `path:"userID"`
	}{})
	postGame.AddRespStructure(ForceGameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGame)

	// GET /api/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Top finishers by frozen final score.")
	getLeaderboard.AddRespStructure([]LeaderboardEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getLeaderboard)

	// POST /api/events/member
	postMember, _ := r.NewOperationContext(http.MethodPost, "/api/events/member")
	postMember.SetSummary("Member joined")
	postMember.SetDescription("Records a group-join event, credits the inviter, and advances their quest when a threshold is crossed.")
	postMember.AddReqStructure(MemberEventRequest{})
	postMember.AddRespStructure(engine.InviteResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postMember.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMember.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postMember)

	// POST /api/events/message
	postMessage, _ := r.NewOperationContext(http.MethodPost, "/api/events/message")
	postMessage.SetSummary("Player message")
	postMessage.SetDescription("Evaluates a free-text message against the player's active game, if any.")
	postMessage.AddReqStructure(MessageEventRequest{})
	postMessage.AddRespStructure(engine.TextResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postMessage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postMessage)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of prompts and results for one player. Pass the user ID as the user query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getEvents)

	// GET /api/groups/{groupID}/members/{userID}/access
	getAccess, _ := r.NewOperationContext(http.MethodGet, "/api/groups/{groupID}/members/{userID}/access")
	getAccess.SetSummary("Messaging rights check")
	getAccess.SetDescription("Whether the member has invited enough people to post in the group.")
	getAccess.AddReqStructure(struct {
		GroupID int64 `path:"groupID"`
		UserID  int64 `path:"userID"`
	}{})
	getAccess.AddRespStructure(GateCheckResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getAccess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getAccess)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/groups/{groupID}/threshold
	getThreshold, _ := r.NewOperationContext(http.MethodGet, "/api/admin/groups/{groupID}/threshold")
	getThreshold.SetSummary("Get group threshold")
	getThreshold.SetDescription("Returns the invite threshold for messaging rights in a group. Requires admin_session cookie.")
	getThreshold.AddReqStructure(struct {
		GroupID int64 `path:"groupID"`
	}{})
	getThreshold.AddRespStructure(ThresholdResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getThreshold.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getThreshold)

	// PUT /api/admin/groups/{groupID}/threshold
	putThreshold, _ := r.NewOperationContext(http.MethodPut, "/api/admin/groups/{groupID}/threshold")
	putThreshold.SetSummary("Set group threshold")
	putThreshold.SetDescription("Updates the invite threshold for messaging rights in a group. Requires admin_session cookie.")
	putThreshold.AddReqStructure(struct {
		GroupID int64 `path:"groupID"`
	}{})
	putThreshold.AddReqStructure(ThresholdRequest{})
	putThreshold.AddRespStructure(ThresholdResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	putThreshold.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	putThreshold.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putThreshold)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
