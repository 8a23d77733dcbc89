package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/groupplay/invitequest/internal/engine"
)

// MemberEventRequest is the body for POST /api/events/member, raised by the
// transport when a new member joins a group.
type MemberEventRequest struct {
	GroupID      int64  `json:"groupId"`
	InviterID    int64  `json:"inviterId"`
	InviteeID    int64  `json:"inviteeId"`
	InviteeIsBot bool   `json:"inviteeIsBot,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"` // RFC 3339; defaults to now
}

func handleMemberEvent(eng *engine.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MemberEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.InviterID == 0 || req.InviteeID == 0 {
			writeError(w, http.StatusBadRequest, "inviterId and inviteeId are required")
			return
		}

		at := time.Now().UTC()
		if req.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339Nano, req.Timestamp)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid timestamp")
				return
			}
			at = parsed
		}

		res, err := eng.MemberJoined(r.Context(), engine.MemberEvent{
			GroupID:      req.GroupID,
			InviterID:    req.InviterID,
			InviteeID:    req.InviteeID,
			InviteeIsBot: req.InviteeIsBot,
			At:           at,
		})
		if errors.Is(err, engine.ErrNotRegistered) {
			writeError(w, http.StatusNotFound, "inviter not registered, send /start first")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if res.LeveledUp {
			broker.Publish(GameEvent{Type: "level_up", UserID: req.InviterID, Level: res.Level})
		}
		if res.Prompt != nil {
			broker.Publish(GameEvent{
				Type:    "prompt",
				UserID:  req.InviterID,
				Level:   res.Prompt.Level,
				Variant: string(res.Prompt.Variant),
			})
		}

		writeJSON(w, http.StatusOK, res)
	}
}
