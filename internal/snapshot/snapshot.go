// Package snapshot persists the minimal resumable subset of session
// state so a session identity survives a client restart. The current
// question and question index are deliberately not persisted:
// re-fetching a question is always safe and idempotent server-side.
package snapshot

import (
	"context"

	"github.com/playperu/globetrotter/internal/quiz"
)

// Key is the fixed record key the snapshot lives under.
const Key = "quiz-session-snapshot"

// Record is the durable, partial copy of session state.
type Record struct {
	Score        int       `json:"score"`
	SessionID    string    `json:"sessionId"`
	ChallengeID  string    `json:"challengeId"`
	InviteLink   string    `json:"inviteLink"`
	Mode         quiz.Mode `json:"mode"`
	InviterScore int       `json:"inviterScore"`
}

// Store is a durable key-value home for the snapshot record. Load
// returns (nil, nil) when no snapshot exists.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (*Record, error)
	Clear(ctx context.Context) error
}
