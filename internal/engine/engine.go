// Package engine orchestrates the invite-gated game: it reacts to inbound
// chat events, drives the per-player state machine, and describes the replies
// to send. All I/O goes through the Store; replies are returned, never sent.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groupplay/invitequest/internal/gate"
	"github.com/groupplay/invitequest/internal/quest"
)

var (
	ErrNotRegistered     = errors.New("player not registered")
	ErrAlreadyRegistered = errors.New("player already registered")
)

// LeaderboardSize is how many players a leaderboard query returns.
const LeaderboardSize = 5

// Store is the durable side of the engine: player records, the invite audit
// log, and group thresholds. UpdatePlayer must apply the mutation atomically
// per user key.
type Store interface {
	Player(ctx context.Context, id int64) (quest.Player, error)
	CreatePlayer(ctx context.Context, p quest.Player) error
	UpdatePlayer(ctx context.Context, id int64, mutate func(*quest.Player) error) (quest.Player, error)

	AppendInvite(ctx context.Context, inviterID, inviteeID int64, at time.Time) error
	HasInvite(ctx context.Context, inviterID, inviteeID int64) (bool, error)

	TopPlayers(ctx context.Context, limit int) ([]quest.Player, error)
	GroupThreshold(ctx context.Context, groupID int64) (int, error)
}

// Engine is the progression controller. One instance serves all players.
type Engine struct {
	store    Store
	sessions *quest.SessionManager
	logger   *slog.Logger
	now      func() time.Time

	dedupInvites bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithInviteDedup makes repeated inviter/invitee pairs count only once.
// Off by default: re-inviting the same member credits again.
func WithInviteDedup(on bool) Option {
	return func(e *Engine) { e.dedupInvites = on }
}

func New(store Store, sessions *quest.SessionManager, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register creates the player record for a start command. Registration is
// idempotent: a second call reports AlreadyRegistered without mutating state.
func (e *Engine) Register(ctx context.Context, userID int64, username string) (RegisterResult, error) {
	p := quest.NewPlayer(userID, username, e.now())

	err := e.store.CreatePlayer(ctx, p)
	if errors.Is(err, ErrAlreadyRegistered) {
		existing, err := e.store.Player(ctx, userID)
		if err != nil {
			return RegisterResult{}, fmt.Errorf("loading existing player %d: %w", userID, err)
		}
		return RegisterResult{AlreadyRegistered: true, Player: existing}, nil
	}
	if err != nil {
		return RegisterResult{}, fmt.Errorf("creating player %d: %w", userID, err)
	}

	e.logger.Info("player registered", "user_id", userID, "username", username)
	return RegisterResult{Player: p}, nil
}

// Profile returns a read-only snapshot of the player's progress.
func (e *Engine) Profile(ctx context.Context, userID int64) (quest.Player, error) {
	return e.store.Player(ctx, userID)
}

// Leaderboard returns the top finishers by score.
func (e *Engine) Leaderboard(ctx context.Context) ([]quest.Player, error) {
	return e.store.TopPlayers(ctx, LeaderboardSize)
}

// ForceGame manually starts a session for a player who has unlocked at least
// one level. For level-0 or completed players it returns a nil prompt.
func (e *Engine) ForceGame(ctx context.Context, userID int64) (*Prompt, error) {
	p, err := e.store.Player(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.Playing() {
		return nil, nil
	}
	s := e.sessions.Start(userID, p.Level, p.CurrentGame)
	e.logger.Info("session started", "user_id", userID, "session_id", s.ID,
		"variant", s.Variant, "level", s.Level, "game", s.GameNum, "trigger", "force")
	return promptFor(s), nil
}

// MemberJoined credits a qualifying invite to the inviter, advances their
// level when thresholds are met, and reports the messaging-gate decision for
// the group.
func (e *Engine) MemberJoined(ctx context.Context, ev MemberEvent) (InviteResult, error) {
	if ev.InviteeIsBot || ev.InviterID == ev.InviteeID {
		return InviteResult{Ignored: true}, nil
	}

	if e.dedupInvites {
		seen, err := e.store.HasInvite(ctx, ev.InviterID, ev.InviteeID)
		if err != nil {
			return InviteResult{}, fmt.Errorf("checking invite history: %w", err)
		}
		if seen {
			return InviteResult{Ignored: true, Duplicate: true}, nil
		}
	}

	var leveled bool
	p, err := e.store.UpdatePlayer(ctx, ev.InviterID, func(p *quest.Player) error {
		p.Invites++
		leveled = quest.AdvanceByInvites(p)
		return nil
	})
	if err != nil {
		return InviteResult{}, err
	}

	if err := e.store.AppendInvite(ctx, ev.InviterID, ev.InviteeID, ev.At); err != nil {
		return InviteResult{}, fmt.Errorf("recording invite: %w", err)
	}

	res := InviteResult{
		Invites:   p.Invites,
		Level:     p.Level,
		LeveledUp: leveled,
	}

	if leveled {
		s := e.sessions.Start(ev.InviterID, p.Level, p.CurrentGame)
		res.Prompt = promptFor(s)
		e.logger.Info("level unlocked", "user_id", ev.InviterID, "level", p.Level,
			"invites", p.Invites, "session_id", s.ID, "variant", s.Variant)
	} else if p.Playing() {
		// A player who forfeited invite progress by running out of lives
		// re-enters their current level once new invites cover its threshold.
		if _, active := e.sessions.Active(ev.InviterID); !active {
			if need, ok := quest.InvitesRequired(p.Level - 1); ok && p.Invites >= need {
				s := e.sessions.Start(ev.InviterID, p.Level, p.CurrentGame)
				res.Prompt = promptFor(s)
				res.Resumed = true
				e.logger.Info("level re-entered", "user_id", ev.InviterID,
					"level", p.Level, "invites", p.Invites, "session_id", s.ID)
			}
		}
	}

	threshold, err := e.store.GroupThreshold(ctx, ev.GroupID)
	if err != nil {
		return InviteResult{}, fmt.Errorf("loading group threshold: %w", err)
	}
	res.Gate = gate.Decide(p.Invites, threshold)

	return res, nil
}

// Text routes a free-text message to the player's active session and applies
// the win/lose bookkeeping. Messages with no pending game are ignored so
// ordinary chat never triggers a judgment.
func (e *Engine) Text(ctx context.Context, userID int64, text string) (TextResult, error) {
	j, s, err := e.sessions.Evaluate(userID, text)
	switch {
	case errors.Is(err, quest.ErrNoSession):
		return TextResult{Ignored: true}, nil
	case errors.Is(err, quest.ErrInvalidNumber):
		return TextResult{Reprompt: promptFor(s)}, nil
	case err != nil:
		return TextResult{}, err
	}

	res := TextResult{Verdict: j.Verdict, Roll: j.Roll, Taps: j.Taps}

	switch j.Verdict {
	case quest.Pending:
		return res, nil
	case quest.Win:
		return e.applyWin(ctx, userID, res)
	default:
		return e.applyLoss(ctx, userID, res)
	}
}

func (e *Engine) applyWin(ctx context.Context, userID int64, res TextResult) (TextResult, error) {
	now := e.now()

	var leveled, completed bool
	p, err := e.store.UpdatePlayer(ctx, userID, func(p *quest.Player) error {
		switch {
		case p.CurrentGame == 0:
			p.CurrentGame = 1
			p.Lives = quest.MaxLives
		case p.Level < quest.FinalLevel:
			p.Level++
			p.CurrentGame = 0
			p.Lives = quest.MaxLives
			leveled = true
		default:
			p.Level = quest.CompletedLevel
			p.CurrentGame = 0
			p.Score = quest.FinalScore(p.StartedAt, now, p.Failures)
			completed = true
		}
		return nil
	})
	if err != nil {
		return TextResult{}, err
	}

	res.LivesLeft = p.Lives
	res.Level = p.Level
	res.GameNum = p.CurrentGame
	res.LevelUp = leveled

	if completed {
		res.QuestComplete = true
		score := p.Score
		res.Score = &score
		e.logger.Info("quest completed", "user_id", userID, "score", p.Score,
			"failures", p.Failures)
		return res, nil
	}

	s := e.sessions.Start(userID, p.Level, p.CurrentGame)
	res.Next = promptFor(s)
	return res, nil
}

func (e *Engine) applyLoss(ctx context.Context, userID int64, res TextResult) (TextResult, error) {
	var wiped bool
	p, err := e.store.UpdatePlayer(ctx, userID, func(p *quest.Player) error {
		p.Lives--
		p.Failures++
		if p.Lives <= 0 {
			// Out of lives: the level attempt collapses and all invite
			// progress is forfeited. The player re-earns entry via new
			// invites; no session is auto-started.
			p.Lives = quest.MaxLives
			p.CurrentGame = 0
			p.Invites = 0
			wiped = true
		}
		return nil
	})
	if err != nil {
		return TextResult{}, err
	}

	res.Level = p.Level
	res.GameNum = p.CurrentGame
	if wiped {
		res.LivesLeft = 0
		res.InvitesReset = true
		e.logger.Info("player out of lives", "user_id", userID, "level", p.Level,
			"failures", p.Failures)
		return res, nil
	}

	res.LivesLeft = p.Lives
	s := e.sessions.Start(userID, p.Level, p.CurrentGame)
	res.Next = promptFor(s)
	return res, nil
}
