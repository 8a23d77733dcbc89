package engine

import (
	"time"

	"github.com/groupplay/invitequest/internal/gate"
	"github.com/groupplay/invitequest/internal/quest"
)

// Prompt is the outbound descriptor for a freshly started mini-game. The
// transport renders it; only public fields of the session are exposed (the
// luckyBox winning box in particular stays server-side).
type Prompt struct {
	SessionID     string        `json:"sessionId"`
	Variant       quest.Variant `json:"variant"`
	Tier          quest.Tier    `json:"tier"`
	Level         int           `json:"level"`
	GameNum       int           `json:"gameNum"`
	Question      string        `json:"question,omitempty"`
	Target        int           `json:"target,omitempty"`
	WindowSeconds int           `json:"windowSeconds,omitempty"`
	Boxes         int           `json:"boxes,omitempty"`
	Sequence      string        `json:"sequence,omitempty"`
}

func promptFor(s *quest.Session) *Prompt {
	p := &Prompt{
		SessionID: s.ID,
		Variant:   s.Variant,
		Tier:      s.Tier,
		Level:     s.Level,
		GameNum:   s.GameNum,
	}
	switch s.Variant {
	case quest.Trivia, quest.MathBattle:
		p.Question = quest.Lookup(s.Variant, s.Tier).Question
	case quest.DiceDuel:
		p.Target = s.Target
	case quest.TapFast:
		p.Target = s.Target
		p.WindowSeconds = int(quest.TapWindow / time.Second)
	case quest.LuckyBox:
		p.Boxes = s.Boxes
	case quest.EmojiMemory:
		p.Sequence = s.Answer
	}
	return p
}

// RegisterResult is the outcome of a start command.
type RegisterResult struct {
	AlreadyRegistered bool         `json:"alreadyRegistered,omitempty"`
	Player            quest.Player `json:"player"`
}

// MemberEvent is an inbound new-member event attributed to an inviter.
type MemberEvent struct {
	GroupID      int64
	InviterID    int64
	InviteeID    int64
	InviteeIsBot bool
	At           time.Time
}

// InviteResult describes everything that happened in response to one credited
// (or rejected) invite.
type InviteResult struct {
	Ignored   bool          `json:"ignored,omitempty"`   // bot account or self-invite
	Duplicate bool          `json:"duplicate,omitempty"` // rejected by the dedup policy
	Invites   int           `json:"invites"`
	Level     int           `json:"level"`
	LeveledUp bool          `json:"leveledUp,omitempty"`
	Resumed   bool          `json:"resumed,omitempty"`
	Prompt    *Prompt       `json:"prompt,omitempty"`
	Gate      gate.Decision `json:"gate"`
}

// TextResult describes how a free-text message was judged.
type TextResult struct {
	Ignored       bool          `json:"ignored,omitempty"` // no active session
	Reprompt      *Prompt       `json:"reprompt,omitempty"`
	Verdict       quest.Verdict `json:"verdict,omitempty"`
	Roll          int           `json:"roll,omitempty"`
	Taps          int           `json:"taps,omitempty"`
	LivesLeft     int           `json:"livesLeft"`
	Level         int           `json:"level"`
	GameNum       int           `json:"gameNum"`
	LevelUp       bool          `json:"levelUp,omitempty"`
	InvitesReset  bool          `json:"invitesReset,omitempty"`
	QuestComplete bool          `json:"questComplete,omitempty"`
	Score         *int          `json:"score,omitempty"`
	Next          *Prompt       `json:"next,omitempty"`
}
