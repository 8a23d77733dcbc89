package server

import (
	"net/http"

	"github.com/groupplay/invitequest/internal/engine"
)

// LeaderboardEntry is one row of the top-finishers view.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"userId"`
	Username string `json:"username,omitempty"`
	Score    int    `json:"score"`
}

func handleLeaderboard(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := eng.Leaderboard(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		entries := make([]LeaderboardEntry, 0, len(top))
		for i, p := range top {
			entries = append(entries, LeaderboardEntry{
				Rank:     i + 1,
				UserID:   p.ID,
				Username: p.Username,
				Score:    p.Score,
			})
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
