package stub

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// authMiddleware requires a bearer token. The token doubles as the
// player identity, which is all the stub needs to tell an inviter from
// an acceptor.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(auth, "Bearer ")
		if !found || token == "" {
			writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUser, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyUser).(string)
}

type startSessionResponse struct {
	SessionID string `json:"sessionId"`
}

func handleStartSession(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := st.startSession(userFrom(r))
		writeJSON(w, http.StatusOK, startSessionResponse{SessionID: sess.ID})
	}
}

func handleRandomQuestion(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		q, err := st.nextQuestion(sessionID)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

type submitRequest struct {
	SessionID  string `json:"sessionId"`
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type submitResponse struct {
	IsCorrect bool   `json:"isCorrect"`
	Score     int    `json:"score"`
	FunFact   string `json:"funFact,omitempty"`
	Trivia    string `json:"trivia,omitempty"`
}

func handleSubmitAnswer(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SessionID == "" || req.QuestionID == "" || req.OptionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId, questionId and optionId are required")
			return
		}

		isCorrect, score, q, err := st.submitAnswer(req.SessionID, req.QuestionID, req.OptionID)
		switch {
		case errors.Is(err, errNotFound):
			writeError(w, http.StatusNotFound, "session or question not found")
			return
		case errors.Is(err, errAlreadyAnswered):
			writeError(w, http.StatusConflict, "question already answered")
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, submitResponse{
			IsCorrect: isCorrect,
			Score:     score,
			FunFact:   q.FunFact,
			Trivia:    q.Trivia,
		})
	}
}

type createChallengeRequest struct {
	SessionID string `json:"sessionId"`
}

type createChallengeResponse struct {
	ID         string `json:"id"`
	InviteLink string `json:"inviteLink"`
}

func handleCreateChallenge(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createChallengeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		ch, err := st.createChallenge(userFrom(r), req.SessionID)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, createChallengeResponse{ID: ch.ID, InviteLink: ch.Link})
	}
}

type challengeResponse struct {
	ID                string `json:"id"`
	InviterScore      int    `json:"inviterScore"`
	IsOwnChallenge    bool   `json:"isOwnChallenge"`
	IsAlreadyAccepted bool   `json:"isAlreadyAccepted"`
}

func handleGetChallenge(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := chi.URLParam(r, "link")
		ch, err := st.challengeByLink(link)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, challengeResponse{
			ID:                ch.ID,
			InviterScore:      ch.Score,
			IsOwnChallenge:    ch.Owner == userFrom(r),
			IsAlreadyAccepted: ch.AcceptedBy != "",
		})
	}
}

type acceptChallengeResponse struct {
	SessionID string `json:"sessionId"`
}

func handleAcceptChallenge(st *store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		link := chi.URLParam(r, "link")

		ch, err := st.challengeByLink(link)
		if errors.Is(err, errNotFound) {
			writeError(w, http.StatusNotFound, "challenge not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if ch.Owner == userFrom(r) {
			writeError(w, http.StatusConflict, "cannot accept your own challenge")
			return
		}
		if ch.AcceptedBy != "" {
			writeError(w, http.StatusConflict, "challenge already accepted")
			return
		}

		sess, err := st.acceptChallenge(link, userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, acceptChallengeResponse{SessionID: sess.ID})
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
