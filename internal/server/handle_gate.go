package server

import (
	"errors"
	"net/http"

	"github.com/groupplay/invitequest/internal/engine"
	"github.com/groupplay/invitequest/internal/gate"
)

// GateCheckResponse tells the transport whether a member may post in a group.
type GateCheckResponse struct {
	Allowed   bool `json:"allowed"`
	Invites   int  `json:"invites"`
	Threshold int  `json:"threshold"`
}

func handleGateCheck(eng *engine.Engine, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid group id")
			return
		}
		userID, err := userIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		threshold, err := store.GroupThreshold(r.Context(), groupID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		invites := 0
		p, err := eng.Profile(r.Context(), userID)
		switch {
		case errors.Is(err, engine.ErrNotRegistered):
			// Unknown members have earned nothing yet.
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		default:
			invites = p.Invites
		}

		writeJSON(w, http.StatusOK, GateCheckResponse{
			Allowed:   gate.Allowed(invites, threshold),
			Invites:   invites,
			Threshold: threshold,
		})
	}
}
