// Package session owns the quiz session lifecycle: question sequencing,
// answer submission, challenge creation and acceptance, and snapshot
// persistence. All state is mutated by the Controller alone; views read
// it through State and the subscription channel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/playperu/globetrotter/internal/quiz"
	"github.com/playperu/globetrotter/internal/snapshot"
)

// ErrSuperseded is returned when a response arrives after the session
// it belongs to has been reset or replaced. The response is discarded
// and the current state is left untouched.
var ErrSuperseded = errors.New("operation superseded by a newer session")

// QuestionGateway talks to the question/answer backend.
type QuestionGateway interface {
	StartSession(ctx context.Context) (string, error)
	GetRandomQuestion(ctx context.Context, sessionID string) (quiz.QuestionPayload, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID, optionID string) (quiz.SubmitPayload, error)
}

// ChallengeGateway talks to the challenge backend.
type ChallengeGateway interface {
	CreateChallenge(ctx context.Context, sessionID string) (quiz.InvitePayload, error)
	GetChallengeByLink(ctx context.Context, link string) (quiz.ChallengePayload, error)
	AcceptChallenge(ctx context.Context, link string) (string, error)
}

// State is an observable copy of the session. Question, Challenge and
// Invite are deep-copied on read, so holders cannot mutate controller
// state.
type State struct {
	Status         quiz.Status
	Mode           quiz.Mode
	SessionID      string
	QuestionIndex  int
	TotalQuestions int
	Score          int
	Question       *quiz.Question
	Answered       bool
	Challenge      *quiz.Challenge
	Invite         *quiz.Invite
	Err            string
}

// CurrentQuestionNumber is the 1-based number of the question on screen.
func (s State) CurrentQuestionNumber() int { return s.QuestionIndex + 1 }

// IsLastQuestion reports whether the current question is the final one.
func (s State) IsLastQuestion() bool {
	return s.CurrentQuestionNumber() == s.TotalQuestions
}

func (s State) clone() State {
	if s.Question != nil {
		q := *s.Question
		q.Options = slices.Clone(q.Options)
		s.Question = &q
	}
	if s.Challenge != nil {
		ch := *s.Challenge
		s.Challenge = &ch
	}
	if s.Invite != nil {
		inv := *s.Invite
		s.Invite = &inv
	}
	return s
}

// Controller is the session state machine. Every outbound gateway call
// is tagged with the generation active when it was issued; a response
// whose tag no longer matches is dropped without touching state. That
// is the sole cancellation mechanism besides ctx itself.
type Controller struct {
	questions  QuestionGateway
	challenges ChallengeGateway
	snapshots  snapshot.Store
	logger     *slog.Logger
	notifier   *notifier

	mu         sync.Mutex
	state      State
	gen        uint64
	fetching   bool
	submitting bool
}

// New builds a controller and rehydrates identity fields from the
// snapshot store. The snapshot is read here and never again.
func New(ctx context.Context, totalQuestions int, questions QuestionGateway, challenges ChallengeGateway, snapshots snapshot.Store, logger *slog.Logger) (*Controller, error) {
	if totalQuestions <= 0 {
		return nil, fmt.Errorf("totalQuestions must be positive, got %d", totalQuestions)
	}

	c := &Controller{
		questions:  questions,
		challenges: challenges,
		snapshots:  snapshots,
		logger:     logger,
		notifier:   newNotifier(),
		state: State{
			Status:         quiz.StatusIdle,
			Mode:           quiz.ModeNormal,
			TotalQuestions: totalQuestions,
		},
	}

	rec, err := snapshots.Load(ctx)
	if err != nil {
		// Rehydration is best-effort; a broken snapshot must not make
		// the controller unusable.
		logger.Warn("loading snapshot failed", "error", err)
		return c, nil
	}
	if rec != nil {
		c.state.Score = rec.Score
		c.state.SessionID = rec.SessionID
		if rec.Mode == quiz.ModeChallenge {
			c.state.Mode = quiz.ModeChallenge
			if rec.ChallengeID != "" {
				c.state.Challenge = &quiz.Challenge{ID: rec.ChallengeID, InviterScore: rec.InviterScore}
			}
		} else if rec.ChallengeID != "" || rec.InviteLink != "" {
			c.state.Invite = &quiz.Invite{ChallengeID: rec.ChallengeID, Link: rec.InviteLink}
		}
	}
	return c, nil
}

// State returns a copy of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel receiving a state copy after every
// change. Slow subscribers miss updates rather than block the
// controller.
func (c *Controller) Subscribe() chan State { return c.notifier.subscribe() }

// Unsubscribe removes a channel returned by Subscribe.
func (c *Controller) Unsubscribe(ch chan State) { c.notifier.unsubscribe(ch) }

// StartNewSession discards any prior session, clears the snapshot,
// obtains a fresh session id and fetches the first question.
func (c *Controller) StartNewSession(ctx context.Context) error {
	c.mu.Lock()
	c.beginLocked()
	c.state.Status = quiz.StatusStarting
	c.clearSnapshotLocked(ctx)
	gen := c.gen
	c.notifyLocked()
	c.mu.Unlock()

	sessionID, err := c.questions.StartSession(ctx)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		err = fmt.Errorf("starting session: %w", err)
		c.failLocked(ctx, err)
		c.mu.Unlock()
		return err
	}
	if sessionID == "" {
		verr := &quiz.ValidationError{Reason: "start response missing session id"}
		c.failLocked(ctx, verr)
		c.mu.Unlock()
		return verr
	}
	c.state.SessionID = sessionID
	c.saveLocked(ctx)
	c.notifyLocked()
	c.mu.Unlock()

	return c.fetchQuestion(ctx, gen)
}

// FetchNextQuestion requests a question for the current session. A call
// while a fetch for the same question index is already in flight is
// ignored, not queued.
func (c *Controller) FetchNextQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.state.SessionID == "" {
		c.mu.Unlock()
		return &quiz.DomainError{Reason: "no active session"}
	}
	gen := c.gen
	c.mu.Unlock()
	return c.fetchQuestion(ctx, gen)
}

func (c *Controller) fetchQuestion(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if c.fetching {
		c.mu.Unlock()
		return nil
	}
	c.fetching = true
	sid := c.state.SessionID
	idx := c.state.QuestionIndex
	c.mu.Unlock()

	payload, err := c.questions.GetRandomQuestion(ctx, sid)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// A reset or a newer session ran while the request was in
		// flight. The flag was already cleared by beginLocked.
		return ErrSuperseded
	}
	c.fetching = false
	if c.state.SessionID != sid || c.state.QuestionIndex != idx {
		return ErrSuperseded
	}
	if err != nil {
		err = fmt.Errorf("fetching question: %w", err)
		c.failLocked(ctx, err)
		return err
	}

	q, verr := buildQuestion(payload)
	if verr != nil {
		c.failLocked(ctx, verr)
		return verr
	}

	c.state.Question = &q
	c.state.Answered = false
	c.state.Status = quiz.StatusActive
	c.state.Err = ""
	c.saveLocked(ctx)
	c.notifyLocked()
	return nil
}

// buildQuestion validates the gateway payload and labels the options.
// The correct-option match against the target city is for post-answer
// highlighting only; scoring stays server-side.
func buildQuestion(p quiz.QuestionPayload) (quiz.Question, error) {
	if p.ID == "" {
		return quiz.Question{}, &quiz.ValidationError{Reason: "question payload missing id"}
	}
	if len(p.Options) == 0 {
		return quiz.Question{}, &quiz.ValidationError{Reason: "question payload has no options"}
	}

	q := quiz.Question{
		ID:      p.ID,
		Clue:    p.Clue,
		Options: make([]quiz.Option, 0, len(p.Options)),
	}
	for _, o := range p.Options {
		q.Options = append(q.Options, quiz.Option{ID: o.ID, Label: o.Label()})
		if o.ID == p.TargetCityID {
			q.CorrectOptionID = o.ID
		}
	}
	return q, nil
}

// SubmitAnswer grades the current question. The server's verdict and
// score are adopted as authoritative. Rejected locally, without a
// network call, when there is no unanswered current question or the
// option is unknown.
func (c *Controller) SubmitAnswer(ctx context.Context, optionID string) (quiz.AnswerOutcome, error) {
	c.mu.Lock()
	q := c.state.Question
	switch {
	case q == nil:
		c.mu.Unlock()
		return quiz.AnswerOutcome{}, &quiz.DomainError{Reason: "no active question"}
	case c.state.Answered:
		c.mu.Unlock()
		return quiz.AnswerOutcome{}, &quiz.DomainError{Reason: "question already answered"}
	case !q.HasOption(optionID):
		c.mu.Unlock()
		return quiz.AnswerOutcome{}, &quiz.DomainError{Reason: "option is not part of the current question"}
	case c.submitting:
		c.mu.Unlock()
		return quiz.AnswerOutcome{}, &quiz.DomainError{Reason: "an answer submission is already in flight"}
	}
	c.submitting = true
	gen := c.gen
	sid := c.state.SessionID
	qid := q.ID
	correct := q.CorrectOptionID
	c.mu.Unlock()

	res, err := c.questions.SubmitAnswer(ctx, sid, qid, optionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return quiz.AnswerOutcome{}, ErrSuperseded
	}
	c.submitting = false
	if err != nil {
		err = fmt.Errorf("submitting answer: %w", err)
		c.failLocked(ctx, err)
		return quiz.AnswerOutcome{}, err
	}
	if c.state.Question == nil || c.state.Question.ID != qid {
		return quiz.AnswerOutcome{}, ErrSuperseded
	}

	c.state.Score = res.Score
	c.state.Answered = true
	c.state.Status = quiz.StatusActive
	c.state.Err = ""
	c.saveLocked(ctx)
	c.notifyLocked()

	return quiz.AnswerOutcome{
		IsCorrect:       res.IsCorrect,
		CorrectOptionID: correct,
		Score:           res.Score,
		FunFact:         res.FunFact,
		Trivia:          res.Trivia,
	}, nil
}

// AdvanceToNextQuestion resolves the answered question. On the last
// question the session completes; otherwise the next question is
// fetched while the old one stays on screen.
func (c *Controller) AdvanceToNextQuestion(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Question == nil {
		c.mu.Unlock()
		return &quiz.DomainError{Reason: "no active question"}
	}
	if !c.state.Answered {
		c.mu.Unlock()
		return &quiz.DomainError{Reason: "current question not answered yet"}
	}

	c.state.QuestionIndex++
	if c.state.QuestionIndex >= c.state.TotalQuestions {
		c.state.Status = quiz.StatusCompleted
		c.state.Question = nil
		c.state.Answered = false
		c.saveLocked(ctx)
		c.notifyLocked()
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.notifyLocked()
	c.mu.Unlock()

	return c.fetchQuestion(ctx, gen)
}

// ResetGame returns to Idle, zeroing score, index and challenge fields,
// and erases the snapshot. Used for "play again" and for abandoning the
// session on navigation.
func (c *Controller) ResetGame(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beginLocked()
	c.clearSnapshotLocked(ctx)
	c.notifyLocked()
	return nil
}

// CreateChallenge turns the current session into an invite others can
// accept. Requires a session id; rejected locally otherwise.
func (c *Controller) CreateChallenge(ctx context.Context) (quiz.Invite, error) {
	c.mu.Lock()
	if c.state.SessionID == "" {
		c.mu.Unlock()
		return quiz.Invite{}, &quiz.DomainError{Reason: "no active quiz session"}
	}
	if c.state.Mode == quiz.ModeChallenge {
		c.mu.Unlock()
		return quiz.Invite{}, &quiz.DomainError{Reason: "cannot create a challenge from an accepted challenge"}
	}
	gen := c.gen
	sid := c.state.SessionID
	c.mu.Unlock()

	payload, err := c.challenges.CreateChallenge(ctx, sid)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return quiz.Invite{}, ErrSuperseded
	}
	if err != nil {
		err = fmt.Errorf("creating challenge: %w", err)
		c.failLocked(ctx, err)
		return quiz.Invite{}, err
	}
	if payload.InviteLink == "" {
		verr := &quiz.ValidationError{Reason: "challenge response missing invite link"}
		c.failLocked(ctx, verr)
		return quiz.Invite{}, verr
	}

	inv := quiz.Invite{ChallengeID: payload.ChallengeID, Link: payload.InviteLink}
	c.state.Invite = &inv
	c.state.Err = ""
	c.saveLocked(ctx)
	c.notifyLocked()
	return inv, nil
}

// GetChallengeInfo fetches invite metadata for display. It has no side
// effects on the session, including on failure.
func (c *Controller) GetChallengeInfo(ctx context.Context, link string) (quiz.ChallengeInfo, error) {
	payload, err := c.challenges.GetChallengeByLink(ctx, link)
	if err != nil {
		return quiz.ChallengeInfo{}, fmt.Errorf("fetching challenge: %w", err)
	}
	if err := validateChallenge(payload); err != nil {
		return quiz.ChallengeInfo{}, err
	}

	c.mu.Lock()
	total := c.state.TotalQuestions
	c.mu.Unlock()

	return quiz.ChallengeInfo{
		ChallengeID:    payload.ID,
		InviterScore:   payload.InviterScore,
		TotalQuestions: total,
	}, nil
}

// StartChallenge re-validates the invite, accepts it and begins a
// challenge-mode session. The pre-existing session state is only
// discarded once validation has passed.
func (c *Controller) StartChallenge(ctx context.Context, link string) error {
	payload, err := c.challenges.GetChallengeByLink(ctx, link)

	c.mu.Lock()
	if err != nil {
		err = fmt.Errorf("fetching challenge: %w", err)
		c.failLocked(ctx, err)
		c.mu.Unlock()
		return err
	}
	if verr := validateChallenge(payload); verr != nil {
		c.failLocked(ctx, verr)
		c.mu.Unlock()
		return verr
	}

	c.beginLocked()
	c.state.Status = quiz.StatusStarting
	c.clearSnapshotLocked(ctx)
	gen := c.gen
	c.notifyLocked()
	c.mu.Unlock()

	sessionID, err := c.challenges.AcceptChallenge(ctx, link)

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		err = fmt.Errorf("accepting challenge: %w", err)
		c.failLocked(ctx, err)
		c.mu.Unlock()
		return err
	}
	if sessionID == "" {
		verr := &quiz.ValidationError{Reason: "accept response missing session id"}
		c.failLocked(ctx, verr)
		c.mu.Unlock()
		return verr
	}

	c.state.SessionID = sessionID
	c.state.Mode = quiz.ModeChallenge
	c.state.Challenge = &quiz.Challenge{ID: payload.ID, InviterScore: payload.InviterScore}
	c.saveLocked(ctx)
	c.notifyLocked()
	c.mu.Unlock()

	return c.fetchQuestion(ctx, gen)
}

// ChallengeResult compares the final score against the inviter's. Only
// meaningful once a challenge-mode session has completed.
func (c *Controller) ChallengeResult() (quiz.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Mode != quiz.ModeChallenge || c.state.Challenge == nil || c.state.Status != quiz.StatusCompleted {
		return "", false
	}
	return quiz.CompareScores(c.state.Score, c.state.Challenge.InviterScore), true
}

func validateChallenge(p quiz.ChallengePayload) error {
	if p.IsOwnChallenge {
		return &quiz.DomainError{Reason: "cannot accept your own challenge"}
	}
	if p.IsAlreadyAccepted {
		return &quiz.DomainError{Reason: "challenge already accepted"}
	}
	return nil
}

// beginLocked discards all mutable session state and invalidates every
// in-flight request by bumping the generation.
func (c *Controller) beginLocked() {
	c.gen++
	c.fetching = false
	c.submitting = false
	c.state = State{
		Status:         quiz.StatusIdle,
		Mode:           quiz.ModeNormal,
		TotalQuestions: c.state.TotalQuestions,
	}
}

// failLocked records an operation failure. An auth failure abandons the
// session entirely; anything else flips status to Failed and leaves the
// rest of the state untouched so the caller can retry the command.
func (c *Controller) failLocked(ctx context.Context, err error) {
	var authErr *quiz.AuthError
	if errors.As(err, &authErr) {
		c.logger.Warn("session abandoned", "error", err)
		c.beginLocked()
		c.state.Err = err.Error()
		c.clearSnapshotLocked(ctx)
		c.notifyLocked()
		return
	}

	c.logger.Warn("operation failed", "error", err)
	c.state.Status = quiz.StatusFailed
	c.state.Err = err.Error()
	c.notifyLocked()
}

func (c *Controller) saveLocked(ctx context.Context) {
	rec := snapshot.Record{
		Score:     c.state.Score,
		SessionID: c.state.SessionID,
		Mode:      c.state.Mode,
	}
	if c.state.Challenge != nil {
		rec.ChallengeID = c.state.Challenge.ID
		rec.InviterScore = c.state.Challenge.InviterScore
	}
	if c.state.Invite != nil {
		rec.ChallengeID = c.state.Invite.ChallengeID
		rec.InviteLink = c.state.Invite.Link
	}
	if err := c.snapshots.Save(ctx, rec); err != nil {
		c.logger.Warn("saving snapshot failed", "error", err)
	}
}

func (c *Controller) clearSnapshotLocked(ctx context.Context) {
	if err := c.snapshots.Clear(ctx); err != nil {
		c.logger.Warn("clearing snapshot failed", "error", err)
	}
}

func (c *Controller) notifyLocked() {
	c.notifier.publish(c.state.clone())
}
