// Command quiz is the interactive terminal client for the Globetrotter
// geography quiz.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/playperu/globetrotter/internal/config"
	"github.com/playperu/globetrotter/internal/gateway"
	"github.com/playperu/globetrotter/internal/quiz"
	"github.com/playperu/globetrotter/internal/session"
	"github.com/playperu/globetrotter/internal/snapshot"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	store, closeStore, err := openSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	questions := gateway.NewQuestionClient(cfg.QuizAPIURL, gateway.StaticToken(cfg.APIToken), nil)
	challenges := gateway.NewChallengeClient(cfg.ChallengeAPIURL, gateway.StaticToken(cfg.APIToken), nil)

	ctrl, err := session.New(ctx, cfg.TotalQuestions, questions, challenges, store, logger)
	if err != nil {
		return fmt.Errorf("creating session controller: %w", err)
	}

	if st := ctrl.State(); st.SessionID != "" {
		fmt.Fprintf(stdout, "Restored a previous session (score %d). Type start for a fresh game.\n", st.Score)
	}

	return repl(ctx, ctrl, session.NewGuard(ctrl), stdin, stdout)
}

func openSnapshotStore(ctx context.Context, cfg *config.Client) (snapshot.Store, func(), error) {
	switch cfg.SnapshotBackend {
	case "redis":
		rdb, err := snapshot.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return snapshot.NewRedisStore(rdb), func() { rdb.Close() }, nil

	case "sqlite":
		if dir := filepath.Dir(cfg.SnapshotDBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating snapshot dir: %w", err)
			}
		}
		db, err := snapshot.OpenSQLite(ctx, cfg.SnapshotDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening snapshot db: %w", err)
		}
		store, err := snapshot.NewSQLiteStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("initializing snapshot store: %w", err)
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

const usage = `commands:
  start            begin a new game
  answer <n>       answer the current question with option n
  next             move on to the next question
  challenge        create an invite from your session
  info <link>      inspect a challenge invite
  accept <link>    accept a challenge invite
  reset            abandon the session
  quit             leave`

func repl(ctx context.Context, ctrl *session.Controller, guard *session.Guard, stdin io.Reader, stdout io.Writer) error {
	fmt.Fprintln(stdout, "Globetrotter: guess the city from the clue.")
	fmt.Fprintln(stdout, usage)

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "start":
			if err := ctrl.StartNewSession(ctx); err != nil {
				fmt.Fprintf(stdout, "could not start: %v\n", err)
				continue
			}
			printQuestion(stdout, ctrl.State())

		case "answer":
			if len(args) != 1 {
				fmt.Fprintln(stdout, "usage: answer <n>")
				continue
			}
			answer(ctx, ctrl, stdout, args[0])

		case "next":
			if err := ctrl.AdvanceToNextQuestion(ctx); err != nil {
				fmt.Fprintf(stdout, "cannot advance: %v\n", err)
				continue
			}
			st := ctrl.State()
			if st.Status == quiz.StatusCompleted {
				printResults(stdout, ctrl)
			} else {
				printQuestion(stdout, st)
			}

		case "challenge":
			inv, err := ctrl.CreateChallenge(ctx)
			if err != nil {
				fmt.Fprintf(stdout, "could not create challenge: %v\n", err)
				continue
			}
			fmt.Fprintf(stdout, "Share this invite: %s\n", inv.Link)

		case "info":
			if len(args) != 1 {
				fmt.Fprintln(stdout, "usage: info <link>")
				continue
			}
			info, err := ctrl.GetChallengeInfo(ctx, args[0])
			if err != nil {
				fmt.Fprintf(stdout, "challenge unavailable: %v\n", err)
				continue
			}
			fmt.Fprintf(stdout, "Beat %d out of %d to win this challenge.\n", info.InviterScore, info.TotalQuestions)

		case "accept":
			if len(args) != 1 {
				fmt.Fprintln(stdout, "usage: accept <link>")
				continue
			}
			if err := ctrl.StartChallenge(ctx, args[0]); err != nil {
				fmt.Fprintf(stdout, "could not accept: %v\n", err)
				continue
			}
			st := ctrl.State()
			fmt.Fprintf(stdout, "Challenge accepted. Score to beat: %d\n", st.Challenge.InviterScore)
			printQuestion(stdout, st)

		case "reset":
			if err := ctrl.ResetGame(ctx); err != nil {
				fmt.Fprintf(stdout, "could not reset: %v\n", err)
			}

		case "quit", "exit":
			quit := false
			err := guard.OnBlockedNavigation(ctx, func() bool {
				return confirm(scanner, stdout, "A game is in progress. Abandon it?")
			}, func() { quit = true })
			if err != nil {
				fmt.Fprintf(stdout, "could not leave: %v\n", err)
				continue
			}
			if quit {
				return nil
			}

		case "help":
			fmt.Fprintln(stdout, usage)

		default:
			fmt.Fprintf(stdout, "unknown command %q (try help)\n", cmd)
		}
	}
}

func answer(ctx context.Context, ctrl *session.Controller, stdout io.Writer, arg string) {
	st := ctrl.State()
	if st.Question == nil {
		fmt.Fprintln(stdout, "no question on screen, type start first")
		return
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(st.Question.Options) {
		fmt.Fprintf(stdout, "pick a number between 1 and %d\n", len(st.Question.Options))
		return
	}

	outcome, err := ctrl.SubmitAnswer(ctx, st.Question.Options[n-1].ID)
	if err != nil {
		fmt.Fprintf(stdout, "could not submit: %v\n", err)
		return
	}

	if outcome.IsCorrect {
		fmt.Fprintln(stdout, "Correct!")
	} else {
		fmt.Fprintf(stdout, "Not quite. The answer was %s.\n", correctLabel(st.Question, outcome.CorrectOptionID))
	}
	if outcome.FunFact != "" {
		fmt.Fprintf(stdout, "Fun fact: %s\n", outcome.FunFact)
	}
	if outcome.Trivia != "" {
		fmt.Fprintf(stdout, "Trivia: %s\n", outcome.Trivia)
	}
	fmt.Fprintf(stdout, "Score: %d. Type next to continue.\n", outcome.Score)
}

func correctLabel(q *quiz.Question, correctID string) string {
	for _, o := range q.Options {
		if o.ID == correctID {
			return o.Label
		}
	}
	return "not revealed"
}

func printQuestion(w io.Writer, st session.State) {
	if st.Question == nil {
		return
	}
	fmt.Fprintf(w, "\nQuestion %d of %d\n", st.CurrentQuestionNumber(), st.TotalQuestions)
	fmt.Fprintf(w, "%s\n", st.Question.Clue)
	for i, o := range st.Question.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, o.Label)
	}
}

func printResults(w io.Writer, ctrl *session.Controller) {
	st := ctrl.State()
	fmt.Fprintf(w, "\nGame over. You scored %d out of %d.\n", st.Score, st.TotalQuestions)

	switch quiz.GradeFor(st.Score, st.TotalQuestions) {
	case quiz.GradeExcellent:
		fmt.Fprintln(w, "Outstanding, a true globetrotter!")
	case quiz.GradeGood:
		fmt.Fprintln(w, "Nice work, the world is opening up.")
	default:
		fmt.Fprintln(w, "Keep exploring, every trip teaches something.")
	}

	if res, ok := ctrl.ChallengeResult(); ok {
		switch res {
		case quiz.ResultWin:
			fmt.Fprintf(w, "You beat the inviter's %d!\n", st.Challenge.InviterScore)
		case quiz.ResultTie:
			fmt.Fprintf(w, "A tie at %d apiece.\n", st.Score)
		case quiz.ResultLoss:
			fmt.Fprintf(w, "The inviter's %d stands. Rematch?\n", st.Challenge.InviterScore)
		}
	}
	fmt.Fprintln(w, "Type start to play again or challenge to invite a friend.")
}

func confirm(scanner *bufio.Scanner, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N] ", prompt)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}
