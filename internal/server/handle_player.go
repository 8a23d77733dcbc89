package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/groupplay/invitequest/internal/engine"
)

// RegisterRequest is the body for POST /api/players (the /start command).
type RegisterRequest struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

func userIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

func handleRegister(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == 0 {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}
		req.Username = strings.TrimSpace(req.Username)

		res, err := eng.Register(r.Context(), req.UserID, req.Username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		status := http.StatusCreated
		if res.AlreadyRegistered {
			status = http.StatusOK
		}
		writeJSON(w, status, res)
	}
}

func handleProfile(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		p, err := eng.Profile(r.Context(), userID)
		if errors.Is(err, engine.ErrNotRegistered) {
			writeError(w, http.StatusNotFound, "player not registered, send /start first")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// ForceGameResponse is the body for POST /api/players/{userID}/game.
type ForceGameResponse struct {
	Started bool           `json:"started"`
	Prompt  *engine.Prompt `json:"prompt,omitempty"`
}

func handleForceGame(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		prompt, err := eng.ForceGame(r.Context(), userID)
		if errors.Is(err, engine.ErrNotRegistered) {
			writeError(w, http.StatusNotFound, "player not registered, send /start first")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if prompt != nil {
			broker.Publish(GameEvent{
				Type:    "prompt",
				UserID:  userID,
				Level:   prompt.Level,
				Variant: string(prompt.Variant),
			})
		}
		writeJSON(w, http.StatusOK, ForceGameResponse{Started: prompt != nil, Prompt: prompt})
	}
}
