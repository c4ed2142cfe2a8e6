package session

import (
	"context"

	"github.com/playperu/globetrotter/internal/quiz"
)

// Guard is the decision side of the leave-page interception: the view
// owns the dialog, the guard owns what "confirm" means.
type Guard struct {
	ctrl *Controller
}

func NewGuard(c *Controller) *Guard {
	return &Guard{ctrl: c}
}

// ShouldBlock reports whether navigating away would abandon a game in
// progress.
func (g *Guard) ShouldBlock() bool {
	return g.ctrl.State().Status == quiz.StatusActive
}

// OnBlockedNavigation runs the confirm/cancel decision for a blocked
// navigation attempt. confirm is the view's dialog; when it returns
// true the session is abandoned and proceed runs. Cancelling is a
// no-op. When nothing blocks, proceed runs immediately.
func (g *Guard) OnBlockedNavigation(ctx context.Context, confirm func() bool, proceed func()) error {
	if !g.ShouldBlock() {
		proceed()
		return nil
	}
	if !confirm() {
		return nil
	}
	if err := g.ctrl.ResetGame(ctx); err != nil {
		return err
	}
	proceed()
	return nil
}
