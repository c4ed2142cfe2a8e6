package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/playperu/globetrotter/internal/quiz"
)

func TestStartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/start" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected a request id header")
		}
		json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-42"})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, StaticToken("tok-1"), srv.Client())
	sid, err := c.StartSession(context.Background())
	if err != nil {
		t.Fatalf("starting session: %v", err)
	}
	if sid != "sess-42" {
		t.Errorf("expected sess-42, got %q", sid)
	}
}

func TestStartSessionMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	_, err := c.StartSession(context.Background())
	var verr *quiz.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGetRandomQuestion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/random/sess-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "q1",
			"clue": "Home of the floating islands of Uros.",
			"options": []map[string]string{
				{"id": "c1", "city": "Puno", "country": "Peru"},
				{"id": "c2", "city": "La Paz", "country": "Bolivia"},
			},
			"targetCityId": "c1",
		})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	got, err := c.GetRandomQuestion(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("fetching question: %v", err)
	}

	want := quiz.QuestionPayload{
		ID:   "q1",
		Clue: "Home of the floating islands of Uros.",
		Options: []quiz.CityOption{
			{ID: "c1", City: "Puno", Country: "Peru"},
			{ID: "c2", City: "La Paz", Country: "Bolivia"},
		},
		TargetCityID: "c1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

// The service has been seen emitting the clue both as a string and as
// an object wrapping one; both decode.
func TestGetRandomQuestionObjectClue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id":           "q1",
			"clue":         map[string]string{"clue": "A wrapped clue."},
			"options":      []map[string]string{{"id": "c1", "city": "Lima", "country": "Peru"}},
			"targetCityId": "c1",
		})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	got, err := c.GetRandomQuestion(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("fetching question: %v", err)
	}
	if got.Clue != "A wrapped clue." {
		t.Errorf("expected unwrapped clue, got %q", got.Clue)
	}
}

func TestGetRandomQuestionWithoutSession(t *testing.T) {
	c := NewQuestionClient("http://unused", nil, nil)
	_, err := c.GetRandomQuestion(context.Background(), "")
	var derr *quiz.DomainError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
}

func TestSubmitAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		want := map[string]string{"sessionId": "sess-1", "questionId": "q1", "optionId": "c2"}
		if diff := cmp.Diff(want, req); diff != "" {
			t.Errorf("request mismatch (-want +got):\n%s", diff)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"isCorrect": true,
			"score":     3,
			"funFact":   "Lima was founded in 1535.",
		})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	got, err := c.SubmitAnswer(context.Background(), "sess-1", "q1", "c2")
	if err != nil {
		t.Fatalf("submitting: %v", err)
	}
	if !got.IsCorrect || got.Score != 3 || got.FunFact == "" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestUnauthorizedBecomesAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, StaticToken("expired"), srv.Client())
	_, err := c.StartSession(context.Background())
	var aerr *quiz.AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestServerErrorBecomesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	_, err := c.StartSession(context.Background())
	var nerr *quiz.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestUnreachableBecomesNetworkError(t *testing.T) {
	c := NewQuestionClient("http://127.0.0.1:1", nil, nil)
	_, err := c.StartSession(context.Background())
	var nerr *quiz.NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestMalformedBodyBecomesValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewQuestionClient(srv.URL, nil, srv.Client())
	_, err := c.StartSession(context.Background())
	var verr *quiz.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestChallengeClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "POST /create":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["sessionId"] != "sess-1" {
				t.Errorf("expected sessionId sess-1, got %q", req["sessionId"])
			}
			json.NewEncoder(w).Encode(map[string]string{"id": "ch-1", "inviteLink": "abc123"})
		case "GET /abc123":
			json.NewEncoder(w).Encode(map[string]any{
				"id":                "ch-1",
				"inviterScore":      4,
				"isOwnChallenge":    false,
				"isAlreadyAccepted": false,
			})
		case "POST /abc123/accept":
			json.NewEncoder(w).Encode(map[string]string{"sessionId": "sess-2"})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewChallengeClient(srv.URL, nil, srv.Client())
	ctx := context.Background()

	inv, err := c.CreateChallenge(ctx, "sess-1")
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if inv.ChallengeID != "ch-1" || inv.InviteLink != "abc123" {
		t.Errorf("unexpected invite: %+v", inv)
	}

	ch, err := c.GetChallengeByLink(ctx, "abc123")
	if err != nil {
		t.Fatalf("fetching: %v", err)
	}
	if ch.ID != "ch-1" || ch.InviterScore != 4 || ch.IsOwnChallenge || ch.IsAlreadyAccepted {
		t.Errorf("unexpected challenge: %+v", ch)
	}

	sid, err := c.AcceptChallenge(ctx, "abc123")
	if err != nil {
		t.Fatalf("accepting: %v", err)
	}
	if sid != "sess-2" {
		t.Errorf("expected sess-2, got %q", sid)
	}
}
