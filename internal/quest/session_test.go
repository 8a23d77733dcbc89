package quest

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRNG() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestSessionStartPopulatesVariantState(t *testing.T) {
	m := NewSessionManager(testRNG())

	for _, v := range Variants {
		v := v
		mgr := NewSessionManager(testRNG(), WithVariantPicker(func() Variant { return v }))
		s := mgr.Start(42, 2, 1)

		require.NotEmpty(t, s.ID)
		assert.Equal(t, v, s.Variant)
		assert.Equal(t, TierMedium, s.Tier)
		assert.Equal(t, 1, s.GameNum)

		switch v {
		case Trivia, MathBattle:
			assert.NotEmpty(t, s.Answer)
		case EmojiMemory:
			assert.Equal(t, Lookup(v, TierMedium).Sequence, s.Answer)
		case DiceDuel, TapFast:
			assert.Equal(t, Lookup(v, TierMedium).Target, s.Target)
		case LuckyBox:
			assert.GreaterOrEqual(t, s.Target, 1)
			assert.LessOrEqual(t, s.Target, s.Boxes)
		}
	}

	// Default picker stays within the catalog.
	s := m.Start(1, 1, 0)
	assert.Contains(t, Variants, s.Variant)
}

func TestSessionStartReplacesExisting(t *testing.T) {
	m := NewSessionManager(testRNG())

	first := m.Start(42, 1, 0)
	second := m.Start(42, 1, 1)

	active, ok := m.Active(42)
	require.True(t, ok)
	assert.Equal(t, second.ID, active.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestEvaluateNoSession(t *testing.T) {
	m := NewSessionManager(testRNG())

	_, _, err := m.Evaluate(42, "hello")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEvaluateDestroysResolvedSession(t *testing.T) {
	m := NewSessionManager(testRNG(), WithVariantPicker(func() Variant { return Trivia }))

	s := m.Start(42, 1, 0)
	j, _, err := m.Evaluate(42, s.Answer)
	require.NoError(t, err)
	assert.Equal(t, Win, j.Verdict)

	_, ok := m.Active(42)
	assert.False(t, ok, "session must be destroyed after a win")

	_, _, err = m.Evaluate(42, s.Answer)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEvaluateKeepsSessionOnInvalidLuckyBoxInput(t *testing.T) {
	m := NewSessionManager(testRNG(), WithVariantPicker(func() Variant { return LuckyBox }))

	m.Start(42, 1, 0)
	_, _, err := m.Evaluate(42, "not a number")
	require.ErrorIs(t, err, ErrInvalidNumber)

	_, ok := m.Active(42)
	assert.True(t, ok)
}

func TestEvaluateTapFastAgainstClock(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewSessionManager(testRNG(),
		WithVariantPicker(func() Variant { return TapFast }),
		WithClock(func() time.Time { return now }),
	)

	m.Start(42, 1, 0) // easy tier, target 5

	for i := 0; i < 4; i++ {
		now = now.Add(200 * time.Millisecond)
		j, _, err := m.Evaluate(42, "tap")
		require.NoError(t, err)
		assert.Equal(t, Pending, j.Verdict)
	}

	// Let the window elapse before the final tap.
	now = now.Add(TapWindow)
	j, _, err := m.Evaluate(42, "tap")
	require.NoError(t, err)
	assert.Equal(t, Lose, j.Verdict)

	_, ok := m.Active(42)
	assert.False(t, ok)
}

func TestDrop(t *testing.T) {
	m := NewSessionManager(testRNG())

	m.Start(42, 1, 0)
	m.Drop(42)

	_, ok := m.Active(42)
	assert.False(t, ok)
}
