package engine_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupplay/invitequest/internal/engine"
	"github.com/groupplay/invitequest/internal/gate"
	"github.com/groupplay/invitequest/internal/quest"
)

type inviteRow struct {
	inviterID int64
	inviteeID int64
	at        time.Time
}

// fakeStore is an in-memory engine.Store for scenario tests.
type fakeStore struct {
	mu         sync.Mutex
	players    map[int64]quest.Player
	invites    []inviteRow
	thresholds map[int64]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		players:    make(map[int64]quest.Player),
		thresholds: make(map[int64]int),
	}
}

func (s *fakeStore) Player(_ context.Context, id int64) (quest.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return quest.Player{}, engine.ErrNotRegistered
	}
	return p, nil
}

func (s *fakeStore) CreatePlayer(_ context.Context, p quest.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		return engine.ErrAlreadyRegistered
	}
	s.players[p.ID] = p
	return nil
}

func (s *fakeStore) UpdatePlayer(_ context.Context, id int64, mutate func(*quest.Player) error) (quest.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return quest.Player{}, engine.ErrNotRegistered
	}
	if err := mutate(&p); err != nil {
		return quest.Player{}, err
	}
	s.players[id] = p
	return p, nil
}

func (s *fakeStore) AppendInvite(_ context.Context, inviterID, inviteeID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites = append(s.invites, inviteRow{inviterID, inviteeID, at})
	return nil
}

func (s *fakeStore) HasInvite(_ context.Context, inviterID, inviteeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.invites {
		if row.inviterID == inviterID && row.inviteeID == inviteeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) TopPlayers(_ context.Context, limit int) ([]quest.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var top []quest.Player
	for _, p := range s.players {
		if p.Score > 0 && p.Completed() {
			top = append(top, p)
		}
	}
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			if top[j].Score > top[i].Score {
				top[i], top[j] = top[j], top[i]
			}
		}
	}
	if len(top) > limit {
		top = top[:limit]
	}
	return top, nil
}

func (s *fakeStore) GroupThreshold(_ context.Context, groupID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.thresholds[groupID]; ok {
		return n, nil
	}
	return gate.DefaultThreshold, nil
}

type fixture struct {
	store    *fakeStore
	sessions *quest.SessionManager
	engine   *engine.Engine
	now      time.Time
}

// newFixture builds an engine with a controllable clock and a fixed variant
// picker so wins and losses can be forced through known answers.
func newFixture(t *testing.T, variant quest.Variant, opts ...engine.Option) *fixture {
	t.Helper()

	f := &fixture{
		store: newFakeStore(),
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }

	f.sessions = quest.NewSessionManager(
		rand.New(rand.NewPCG(1, 2)),
		quest.WithVariantPicker(func() quest.Variant { return variant }),
		quest.WithClock(clock),
	)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]engine.Option{engine.WithClock(clock)}, opts...)
	f.engine = engine.New(f.store, f.sessions, logger, opts...)
	return f
}

func (f *fixture) register(t *testing.T, id int64, name string) {
	t.Helper()
	res, err := f.engine.Register(context.Background(), id, name)
	require.NoError(t, err)
	require.False(t, res.AlreadyRegistered)
}

func (f *fixture) invite(t *testing.T, inviter, invitee int64) engine.InviteResult {
	t.Helper()
	res, err := f.engine.MemberJoined(context.Background(), engine.MemberEvent{
		GroupID:   100,
		InviterID: inviter,
		InviteeID: invitee,
		At:        f.now,
	})
	require.NoError(t, err)
	return res
}

// winningInput derives the input that wins the player's active session.
func (f *fixture) winningInput(t *testing.T, userID int64) string {
	t.Helper()
	s, ok := f.sessions.Active(userID)
	require.True(t, ok, "expected an active session")
	switch s.Variant {
	case quest.Trivia, quest.MathBattle, quest.EmojiMemory:
		return s.Answer
	case quest.LuckyBox:
		return strconv.Itoa(s.Target)
	default:
		t.Fatalf("no deterministic winning input for %s", s.Variant)
		return ""
	}
}

func assertInvariants(t *testing.T, p quest.Player) {
	t.Helper()
	assert.GreaterOrEqual(t, p.Lives, 0)
	assert.LessOrEqual(t, p.Lives, quest.MaxLives)
	assert.GreaterOrEqual(t, p.Level, 0)
	assert.LessOrEqual(t, p.Level, quest.CompletedLevel)
	assert.Contains(t, []int{0, 1}, p.CurrentGame)
	assert.GreaterOrEqual(t, p.Invites, 0)
	assert.GreaterOrEqual(t, p.Failures, 0)
}

func TestRegisterIdempotent(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	ctx := context.Background()

	res, err := f.engine.Register(ctx, 1, "maria")
	require.NoError(t, err)
	assert.False(t, res.AlreadyRegistered)
	assert.Equal(t, 0, res.Player.Level)
	assert.Equal(t, quest.MaxLives, res.Player.Lives)
	assert.Equal(t, 0, res.Player.Invites)

	res, err = f.engine.Register(ctx, 1, "maria")
	require.NoError(t, err)
	assert.True(t, res.AlreadyRegistered)
}

func TestProfileUnregistered(t *testing.T) {
	f := newFixture(t, quest.Trivia)

	_, err := f.engine.Profile(context.Background(), 99)
	assert.ErrorIs(t, err, engine.ErrNotRegistered)
}

func TestFirstInviteUnlocksLevelOne(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	res := f.invite(t, 1, 2)

	assert.False(t, res.Ignored)
	assert.Equal(t, 1, res.Invites)
	assert.Equal(t, 1, res.Level)
	assert.True(t, res.LeveledUp)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, quest.Trivia, res.Prompt.Variant)
	assert.Equal(t, quest.TierEasy, res.Prompt.Tier)

	p, err := f.engine.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, quest.MaxLives, p.Lives)
	assert.Equal(t, 0, p.CurrentGame)
	assertInvariants(t, p)

	_, active := f.sessions.Active(1)
	assert.True(t, active)
}

func TestInviteThresholdsCascade(t *testing.T) {
	// Thresholds apply to total invites, so the second invite clears both the
	// 1→2 and 2→3 checks in one evaluation.
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	f.invite(t, 1, 2)
	res := f.invite(t, 1, 3)

	assert.Equal(t, 2, res.Invites)
	assert.Equal(t, 3, res.Level)
	assert.True(t, res.LeveledUp)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, quest.TierHard, res.Prompt.Tier)
}

func TestInviteIgnoredForBots(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	res, err := f.engine.MemberJoined(context.Background(), engine.MemberEvent{
		GroupID: 100, InviterID: 1, InviteeID: 2, InviteeIsBot: true, At: f.now,
	})
	require.NoError(t, err)
	assert.True(t, res.Ignored)

	p, _ := f.engine.Profile(context.Background(), 1)
	assert.Equal(t, 0, p.Invites)
}

func TestSelfInviteIgnored(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	res := f.invite(t, 1, 1)
	assert.True(t, res.Ignored)
}

func TestInviteUnregisteredInviter(t *testing.T) {
	f := newFixture(t, quest.Trivia)

	_, err := f.engine.MemberJoined(context.Background(), engine.MemberEvent{
		GroupID: 100, InviterID: 1, InviteeID: 2, At: f.now,
	})
	assert.ErrorIs(t, err, engine.ErrNotRegistered)
	assert.Empty(t, f.store.invites, "no audit row without a registered inviter")
}

func TestInviteDoubleCountByDefault(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	f.invite(t, 1, 2)
	res := f.invite(t, 1, 2) // same invitee again

	assert.False(t, res.Ignored)
	assert.Equal(t, 2, res.Invites)
}

func TestInviteDedupPolicy(t *testing.T) {
	f := newFixture(t, quest.Trivia, engine.WithInviteDedup(true))
	f.register(t, 1, "maria")

	f.invite(t, 1, 2)
	res := f.invite(t, 1, 2)

	assert.True(t, res.Duplicate)
	p, _ := f.engine.Profile(context.Background(), 1)
	assert.Equal(t, 1, p.Invites)
}

func TestInviteGateDecision(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.store.thresholds[100] = 2
	f.register(t, 1, "maria")

	res := f.invite(t, 1, 2)
	assert.True(t, res.Gate.RestrictJoinee)
	assert.False(t, res.Gate.GrantInviter)
	assert.Equal(t, 2, res.Gate.Needed)

	res = f.invite(t, 1, 3)
	assert.True(t, res.Gate.GrantInviter)
}

func TestTextIgnoredWithoutSession(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")

	res, err := f.engine.Text(context.Background(), 1, "just chatting")
	require.NoError(t, err)
	assert.True(t, res.Ignored)
}

func TestWinAdvancesWithinLevel(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2)

	res, err := f.engine.Text(context.Background(), 1, f.winningInput(t, 1))
	require.NoError(t, err)

	assert.Equal(t, quest.Win, res.Verdict)
	assert.Equal(t, 1, res.Level)
	assert.Equal(t, 1, res.GameNum)
	assert.Equal(t, quest.MaxLives, res.LivesLeft)
	require.NotNil(t, res.Next)
	assert.Equal(t, 1, res.Next.GameNum)
}

func TestLossKeepsSlotWhileLivesRemain(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2)

	res, err := f.engine.Text(context.Background(), 1, "definitely wrong")
	require.NoError(t, err)

	assert.Equal(t, quest.Lose, res.Verdict)
	assert.Equal(t, 1, res.LivesLeft)
	assert.False(t, res.InvitesReset)
	require.NotNil(t, res.Next, "a fresh attempt starts at the same slot")
	assert.Equal(t, 0, res.Next.GameNum)

	p, _ := f.engine.Profile(context.Background(), 1)
	assert.Equal(t, 1, p.Failures)
	assertInvariants(t, p)
}

func TestLossToZeroLivesResetsInvites(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2)
	ctx := context.Background()

	_, err := f.engine.Text(ctx, 1, "wrong one")
	require.NoError(t, err)
	res, err := f.engine.Text(ctx, 1, "wrong two")
	require.NoError(t, err)

	assert.Equal(t, 0, res.LivesLeft)
	assert.True(t, res.InvitesReset)
	assert.Nil(t, res.Next, "no session auto-starts after a wipe")

	p, _ := f.engine.Profile(ctx, 1)
	assert.Equal(t, 0, p.Invites)
	assert.Equal(t, quest.MaxLives, p.Lives)
	assert.Equal(t, 0, p.CurrentGame)
	assert.Equal(t, 1, p.Level, "level never decreases")
	assert.Equal(t, 2, p.Failures)

	_, active := f.sessions.Active(1)
	assert.False(t, active)
}

func TestReinviteAfterWipeRestartsSession(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2)
	ctx := context.Background()

	f.engine.Text(ctx, 1, "wrong one")
	f.engine.Text(ctx, 1, "wrong two")

	res := f.invite(t, 1, 3)

	assert.False(t, res.LeveledUp)
	assert.True(t, res.Resumed)
	require.NotNil(t, res.Prompt)
	assert.Equal(t, 1, res.Prompt.Level)
}

func TestCompletingFinalLevelFreezesScore(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	ctx := context.Background()

	// Two invites cascade straight to level 3.
	f.invite(t, 1, 2)
	f.invite(t, 1, 3)

	// Lose once, then win both games 10 minutes in.
	_, err := f.engine.Text(ctx, 1, "wrong")
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)

	res, err := f.engine.Text(ctx, 1, f.winningInput(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.GameNum)

	res, err = f.engine.Text(ctx, 1, f.winningInput(t, 1))
	require.NoError(t, err)

	assert.True(t, res.QuestComplete)
	require.NotNil(t, res.Score)
	// 1000 - 10*5 - 1*20 = 930.
	assert.Equal(t, 930, *res.Score)
	assert.Nil(t, res.Next)

	p, _ := f.engine.Profile(ctx, 1)
	assert.Equal(t, quest.CompletedLevel, p.Level)
	assert.Equal(t, 930, p.Score)
	assertInvariants(t, p)

	// Terminal: later chat is ignored and the score never recomputes.
	f.now = f.now.Add(time.Hour)
	after, err := f.engine.Text(ctx, 1, "hello again")
	require.NoError(t, err)
	assert.True(t, after.Ignored)

	p, _ = f.engine.Profile(ctx, 1)
	assert.Equal(t, 930, p.Score)
}

func TestLuckyBoxInvalidInputReprompts(t *testing.T) {
	f := newFixture(t, quest.LuckyBox)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2)
	ctx := context.Background()

	res, err := f.engine.Text(ctx, 1, "x")
	require.NoError(t, err)
	require.NotNil(t, res.Reprompt)
	assert.Equal(t, quest.LuckyBox, res.Reprompt.Variant)

	// No life lost, session still live.
	p, _ := f.engine.Profile(ctx, 1)
	assert.Equal(t, quest.MaxLives, p.Lives)
	_, active := f.sessions.Active(1)
	assert.True(t, active)

	// Picking the recorded winning box resolves the game.
	win, err := f.engine.Text(ctx, 1, f.winningInput(t, 1))
	require.NoError(t, err)
	assert.Equal(t, quest.Win, win.Verdict)
}

func TestTapFastThroughEngine(t *testing.T) {
	f := newFixture(t, quest.TapFast)
	f.register(t, 1, "maria")
	f.invite(t, 1, 2) // easy tier, target 5
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		f.now = f.now.Add(300 * time.Millisecond)
		res, err := f.engine.Text(ctx, 1, "tap")
		require.NoError(t, err)
		assert.Equal(t, quest.Pending, res.Verdict)
		assert.Equal(t, i, res.Taps)
	}

	f.now = f.now.Add(300 * time.Millisecond)
	res, err := f.engine.Text(ctx, 1, "tap")
	require.NoError(t, err)
	assert.Equal(t, quest.Win, res.Verdict)
	assert.Equal(t, 5, res.Taps)
}

func TestForceGame(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	f.register(t, 1, "maria")
	ctx := context.Background()

	// Level 0: no-op.
	p, err := f.engine.ForceGame(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p)

	f.invite(t, 1, 2)
	f.sessions.Drop(1) // simulate a restart losing the session

	p, err = f.engine.ForceGame(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.Level)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t, quest.Trivia)
	ctx := context.Background()

	for i := int64(1); i <= 7; i++ {
		f.register(t, i, "player")
		f.store.mu.Lock()
		p := f.store.players[i]
		p.Level = quest.CompletedLevel
		p.Score = int(i * 100)
		f.store.players[i] = p
		f.store.mu.Unlock()
	}

	top, err := f.engine.Leaderboard(ctx)
	require.NoError(t, err)
	require.Len(t, top, engine.LeaderboardSize)
	assert.Equal(t, 700, top[0].Score)
	assert.Equal(t, 300, top[4].Score)
}
