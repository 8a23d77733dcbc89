package quest

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the ephemeral state of one in-progress mini-game. Sessions live
// only in memory; a process restart drops them and the player re-triggers a
// game start.
type Session struct {
	ID        string
	UserID    int64
	Variant   Variant
	Tier      Tier
	Level     int
	GameNum   int
	StartedAt time.Time

	Answer   string    // trivia, mathBattle, emojiMemory
	Target   int       // diceDuel/tapFast target, luckyBox winning box
	Boxes    int       // luckyBox
	Taps     int       // tapFast running count
	Deadline time.Time // tapFast
}

// SessionManager owns at most one session per user. All access goes through
// the manager; sessions are replaced wholesale when a new game starts and
// destroyed as soon as they resolve.
type SessionManager struct {
	mu     sync.Mutex
	byUser map[int64]*Session

	rng  *rand.Rand
	now  func() time.Time
	pick func() Variant
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) { m.now = now }
}

// WithVariantPicker overrides random variant selection.
func WithVariantPicker(pick func() Variant) SessionOption {
	return func(m *SessionManager) { m.pick = pick }
}

// NewSessionManager builds a manager around the given random source. The
// source drives variant selection, luckyBox placement, and dice rolls, so a
// seeded source makes every outcome reproducible.
func NewSessionManager(rng *rand.Rand, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		byUser: make(map[int64]*Session),
		rng:    rng,
		now:    time.Now,
	}
	m.pick = func() Variant { return Variants[m.rng.IntN(len(Variants))] }
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start creates a session for the given level and game slot, replacing any
// session the user already had.
func (m *SessionManager) Start(userID int64, level, gameNum int) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	tier := TierForLevel(level)
	variant := m.pick()
	def := Lookup(variant, tier)
	now := m.now()

	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Variant:   variant,
		Tier:      tier,
		Level:     level,
		GameNum:   gameNum,
		StartedAt: now,
		Target:    def.Target,
		Boxes:     def.Boxes,
	}

	switch variant {
	case Trivia, MathBattle:
		s.Answer = def.Answer
	case EmojiMemory:
		s.Answer = def.Sequence
	case LuckyBox:
		s.Target = m.rng.IntN(def.Boxes) + 1
	case TapFast:
		s.Deadline = now.Add(TapWindow)
	}

	m.byUser[userID] = s
	return s
}

// Active returns the user's live session, if any.
func (m *SessionManager) Active(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byUser[userID]
	return s, ok
}

// Evaluate judges raw input against the user's session. Win and Lose destroy
// the session; Pending and invalid luckyBox input leave it live. With no
// session it returns ErrNoSession.
func (m *SessionManager) Evaluate(userID int64, input string) (Judgment, *Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byUser[userID]
	if !ok {
		return Judgment{}, nil, ErrNoSession
	}

	j, err := Judge(s, input, m.now(), func(n int) int { return m.rng.IntN(n) + 1 })
	if err != nil {
		return j, s, err
	}
	if j.Verdict != Pending {
		delete(m.byUser, userID)
	}
	return j, s, nil
}

// Drop discards the user's session without judging it.
func (m *SessionManager) Drop(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byUser, userID)
}
