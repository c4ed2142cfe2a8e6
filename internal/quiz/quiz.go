// Package quiz defines the core domain types for the Globetrotter game.
package quiz

import "fmt"

// Status is the lifecycle state of a quiz session.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStarting  Status = "starting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Mode distinguishes a regular play-through from an accepted challenge.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeChallenge Mode = "challenge"
)

// Option is one selectable answer choice. Label is stable for the
// lifetime of the question.
type Option struct {
	ID    string
	Label string
}

// Question is one active prompt with its answer choices.
// CorrectOptionID is derived from the server's target city and is used
// only to mark the right option after the answer is revealed; it never
// participates in scoring.
type Question struct {
	ID              string
	Clue            string
	Options         []Option
	CorrectOptionID string
}

// HasOption reports whether id is one of the question's choices.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// AnswerOutcome is the server-confirmed result of one submission. Score
// is the session total as reported by the server, not a local count.
type AnswerOutcome struct {
	IsCorrect       bool
	CorrectOptionID string
	Score           int
	FunFact         string
	Trivia          string
}

// Challenge identifies an accepted invite and the inviter's final score.
type Challenge struct {
	ID           string
	InviterScore int
}

// Invite is a challenge created by this session for others to accept.
type Invite struct {
	ChallengeID string
	Link        string
}

// ChallengeInfo is the display payload for an invite that has not been
// accepted yet.
type ChallengeInfo struct {
	ChallengeID    string
	InviterScore   int
	TotalQuestions int
}

// CityOption is an answer choice as the question service delivers it.
type CityOption struct {
	ID      string
	City    string
	Country string
}

// Label renders the choice as shown to the player.
func (o CityOption) Label() string {
	if o.City == "" || o.Country == "" {
		return "Unknown location"
	}
	return fmt.Sprintf("%s, %s", o.City, o.Country)
}

// QuestionPayload is the raw question as returned by the question
// service, before validation and option labelling.
type QuestionPayload struct {
	ID           string
	Clue         string
	Options      []CityOption
	TargetCityID string
}

// ChallengePayload is the raw challenge record as returned by the
// challenge service for an invite link.
type ChallengePayload struct {
	ID                string
	InviterScore      int
	IsOwnChallenge    bool
	IsAlreadyAccepted bool
}

// InvitePayload is the raw record returned when a challenge is created.
type InvitePayload struct {
	ChallengeID string
	InviteLink  string
}

// SubmitPayload is the server's verdict on one submission. Score is
// authoritative for the whole session.
type SubmitPayload struct {
	IsCorrect bool
	Score     int
	FunFact   string
	Trivia    string
}

// Result is the outcome of a challenge-mode score comparison.
type Result string

const (
	ResultWin  Result = "win"
	ResultTie  Result = "tie"
	ResultLoss Result = "loss"
)

// CompareScores compares the player's final score against the
// inviter's.
func CompareScores(score, inviterScore int) Result {
	switch {
	case score > inviterScore:
		return ResultWin
	case score < inviterScore:
		return ResultLoss
	default:
		return ResultTie
	}
}

// Grade buckets a final score for results messaging.
type Grade string

const (
	GradeExcellent      Grade = "excellent"
	GradeGood           Grade = "good"
	GradeKeepPracticing Grade = "keep-practicing"
)

// GradeFor buckets score/total by percentage: 80+ excellent, 60+ good,
// anything below keep-practicing.
func GradeFor(score, total int) Grade {
	if total <= 0 {
		return GradeKeepPracticing
	}
	pct := score * 100 / total
	switch {
	case pct >= 80:
		return GradeExcellent
	case pct >= 60:
		return GradeGood
	default:
		return GradeKeepPracticing
	}
}
