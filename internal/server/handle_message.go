package server

import (
	"errors"
	"net/http"

	"github.com/groupplay/invitequest/internal/engine"
	"github.com/groupplay/invitequest/internal/quest"
)

// MessageEventRequest is the body for POST /api/events/message, raised for
// any free-text message from a player.
type MessageEventRequest struct {
	UserID int64  `json:"userId"`
	Text   string `json:"text"`
}

func handleMessageEvent(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MessageEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == 0 {
			writeError(w, http.StatusBadRequest, "userId is required")
			return
		}

		res, err := eng.Text(r.Context(), req.UserID, req.Text)
		if errors.Is(err, engine.ErrNotRegistered) {
			writeError(w, http.StatusNotFound, "player not registered, send /start first")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		switch {
		case res.QuestComplete:
			broker.Publish(GameEvent{
				Type:   "quest_complete",
				UserID: req.UserID,
				Score:  res.Score,
			})
		case res.Verdict == quest.Win || res.Verdict == quest.Lose:
			broker.Publish(GameEvent{
				Type:    "result",
				UserID:  req.UserID,
				Level:   res.Level,
				Verdict: string(res.Verdict),
			})
		}
		if res.Next != nil {
			broker.Publish(GameEvent{
				Type:    "prompt",
				UserID:  req.UserID,
				Level:   res.Next.Level,
				Variant: string(res.Next.Variant),
			})
		}

		writeJSON(w, http.StatusOK, res)
	}
}
