package quest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvanceByInvitesSingleStep(t *testing.T) {
	p := NewPlayer(1, "maria", time.Now())
	p.Invites = 1

	assert.True(t, AdvanceByInvites(&p))
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, MaxLives, p.Lives)
	assert.Equal(t, 0, p.CurrentGame)
}

func TestAdvanceByInvitesNotEnough(t *testing.T) {
	p := NewPlayer(1, "maria", time.Now())

	assert.False(t, AdvanceByInvites(&p))
	assert.Equal(t, 0, p.Level)
}

func TestAdvanceByInvitesCascades(t *testing.T) {
	// Thresholds are on total invites, so two invites at level 0 clear the
	// 0→1, 1→2, and 2→3 checks in a single evaluation.
	p := NewPlayer(1, "maria", time.Now())
	p.Invites = 2

	assert.True(t, AdvanceByInvites(&p))
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, MaxLives, p.Lives)
	assert.Equal(t, 0, p.CurrentGame)
}

func TestAdvanceByInvitesStopsAtFinalLevel(t *testing.T) {
	p := NewPlayer(1, "maria", time.Now())
	p.Level = FinalLevel
	p.Invites = 100

	assert.False(t, AdvanceByInvites(&p), "level 3 is only left through scoring")
	assert.Equal(t, FinalLevel, p.Level)
}

func TestAdvanceByInvitesResetsGameSlot(t *testing.T) {
	p := NewPlayer(1, "maria", time.Now())
	p.Level = 1
	p.CurrentGame = 1
	p.Lives = 1
	p.Invites = 2

	assert.True(t, AdvanceByInvites(&p))
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 0, p.CurrentGame)
	assert.Equal(t, MaxLives, p.Lives)
}
