package quest

// invitesRequired is the cumulative invite count needed to advance out of a
// level. The thresholds apply to the player's total invites, not the delta
// since the last level-up, so a single check can advance multiple levels.
var invitesRequired = map[int]int{
	0: 1,
	1: 2,
	2: 2,
}

// InvitesRequired returns the total-invite threshold to leave level, and
// whether invites can advance that level at all. Level 3 is only left through
// scoring.
func InvitesRequired(level int) (int, bool) {
	n, ok := invitesRequired[level]
	return n, ok
}

// AdvanceByInvites applies every level transition the player's cumulative
// invite count has earned. Each transition resets lives and the game slot.
// It returns true if at least one level was gained.
func AdvanceByInvites(p *Player) bool {
	advanced := false
	for p.Level < FinalLevel {
		need, ok := invitesRequired[p.Level]
		if !ok || p.Invites < need {
			break
		}
		p.Level++
		p.Lives = MaxLives
		p.CurrentGame = 0
		advanced = true
	}
	return advanced
}
