package quest

import (
	"strconv"
	"strings"
	"time"
)

// Variant is one of the six mini-game types.
type Variant string

const (
	Trivia      Variant = "trivia"
	DiceDuel    Variant = "diceDuel"
	TapFast     Variant = "tapFast"
	MathBattle  Variant = "mathBattle"
	LuckyBox    Variant = "luckyBox"
	EmojiMemory Variant = "emojiMemory"
)

// Variants lists every playable variant. Session start picks one uniformly.
var Variants = []Variant{Trivia, DiceDuel, TapFast, MathBattle, LuckyBox, EmojiMemory}

// Tier is the difficulty setting derived from the player's level.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// TierForLevel maps a playable level to its difficulty tier.
func TierForLevel(level int) Tier {
	switch level {
	case 1:
		return TierEasy
	case 2:
		return TierMedium
	default:
		return TierHard
	}
}

// TapWindow is how long a tapFast session stays open.
const TapWindow = 5 * time.Second

// Definition is the static, tier-specific data for one variant.
type Definition struct {
	Question string // trivia, mathBattle
	Answer   string // trivia, mathBattle, emojiMemory
	Target   int    // diceDuel roll target, tapFast tap target
	Boxes    int    // luckyBox box count
	Sequence string // emojiMemory sequence to repeat
}

var catalog = map[Variant]map[Tier]Definition{
	Trivia: {
		TierEasy:   {Question: "What planet is known as the Red Planet?", Answer: "mars"},
		TierMedium: {Question: "What is the capital of Australia?", Answer: "canberra"},
		TierHard:   {Question: "Which chemical element has the symbol W?", Answer: "tungsten"},
	},
	DiceDuel: {
		TierEasy:   {Target: 4},
		TierMedium: {Target: 6},
		TierHard:   {Target: 8},
	},
	TapFast: {
		TierEasy:   {Target: 5},
		TierMedium: {Target: 10},
		TierHard:   {Target: 15},
	},
	MathBattle: {
		TierEasy:   {Question: "7 + 5", Answer: "12"},
		TierMedium: {Question: "13 * 7", Answer: "91"},
		TierHard:   {Question: "(9 * 7) - 14", Answer: "49"},
	},
	LuckyBox: {
		TierEasy:   {Boxes: 3},
		TierMedium: {Boxes: 5},
		TierHard:   {Boxes: 7},
	},
	EmojiMemory: {
		TierEasy:   {Sequence: "🐶🐱🐭"},
		TierMedium: {Sequence: "🍎🍌🍇🍒🥝"},
		TierHard:   {Sequence: "🚗✈️🚀🚁🚂⛵🛸"},
	},
}

// Lookup returns the static definition for a variant at a tier.
func Lookup(v Variant, t Tier) Definition {
	return catalog[v][t]
}

// Verdict is the result of judging one input against a session.
type Verdict string

const (
	Win     Verdict = "win"
	Lose    Verdict = "lose"
	Pending Verdict = "pending"
)

// Judgment carries the verdict plus variant-specific detail for the reply.
type Judgment struct {
	Verdict Verdict
	Roll    int // diceDuel: the simulated roll
	Taps    int // tapFast: cumulative taps so far
}

// Judge evaluates one raw input against a session. It mutates only the
// session's running tap count. roll returns a uniform value in [1, n]; it is
// injected so outcomes are reproducible in tests.
//
// Judge returns ErrInvalidNumber for a malformed luckyBox choice; the session
// stays live and no life is lost.
func Judge(s *Session, input string, now time.Time, roll func(n int) int) (Judgment, error) {
	input = strings.TrimSpace(input)

	switch s.Variant {
	case Trivia:
		if strings.EqualFold(input, s.Answer) {
			return Judgment{Verdict: Win}, nil
		}
		return Judgment{Verdict: Lose}, nil

	case DiceDuel:
		// Any reply triggers the roll.
		r := roll(6)
		if r >= s.Target {
			return Judgment{Verdict: Win, Roll: r}, nil
		}
		return Judgment{Verdict: Lose, Roll: r}, nil

	case TapFast:
		if now.After(s.Deadline) {
			return Judgment{Verdict: Lose, Taps: s.Taps}, nil
		}
		s.Taps++
		if s.Taps >= s.Target {
			return Judgment{Verdict: Win, Taps: s.Taps}, nil
		}
		return Judgment{Verdict: Pending, Taps: s.Taps}, nil

	case MathBattle:
		if input == s.Answer {
			return Judgment{Verdict: Win}, nil
		}
		return Judgment{Verdict: Lose}, nil

	case LuckyBox:
		choice, err := strconv.Atoi(input)
		if err != nil {
			return Judgment{Verdict: Pending}, ErrInvalidNumber
		}
		if choice == s.Target {
			return Judgment{Verdict: Win}, nil
		}
		return Judgment{Verdict: Lose}, nil

	case EmojiMemory:
		if input == s.Answer {
			return Judgment{Verdict: Win}, nil
		}
		return Judgment{Verdict: Lose}, nil
	}

	return Judgment{Verdict: Lose}, nil
}
