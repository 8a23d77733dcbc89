package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/groupplay/invitequest/internal/gate"
)

// ThresholdResponse is the messaging-rights threshold for one group.
type ThresholdResponse struct {
	GroupID   int64 `json:"groupId"`
	Threshold int   `json:"threshold"`
}

// ThresholdRequest is the body for PUT /api/admin/groups/{groupID}/threshold.
type ThresholdRequest struct {
	Threshold int `json:"threshold"`
}

func groupIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
}

func handleGetThreshold(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid group id")
			return
		}

		threshold, err := store.GroupThreshold(r.Context(), groupID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ThresholdResponse{GroupID: groupID, Threshold: threshold})
	}
}

func handleSetThreshold(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := groupIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid group id")
			return
		}

		var req ThresholdRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !gate.ValidThreshold(req.Threshold) {
			writeError(w, http.StatusBadRequest, "threshold must be at least 1")
			return
		}

		if err := store.SetGroupThreshold(r.Context(), groupID, req.Threshold); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		logger.Info("group threshold updated", "group_id", groupID, "threshold", req.Threshold)
		writeJSON(w, http.StatusOK, ThresholdResponse{GroupID: groupID, Threshold: req.Threshold})
	}
}
