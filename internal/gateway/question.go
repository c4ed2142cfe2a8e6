package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/playperu/globetrotter/internal/quiz"
)

// QuestionClient talks to the question/answer service.
type QuestionClient struct {
	client
}

// NewQuestionClient builds a client rooted at baseURL, e.g.
// "http://localhost:5000/quiz".
func NewQuestionClient(baseURL string, tokens TokenSource, httpc *http.Client) *QuestionClient {
	return &QuestionClient{client: newClient(baseURL, tokens, httpc)}
}

type startSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// StartSession requests a fresh quiz session id.
func (c *QuestionClient) StartSession(ctx context.Context) (string, error) {
	var resp startSessionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/start", nil, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &quiz.ValidationError{Reason: "start response missing session id"}
	}
	return resp.SessionID, nil
}

// clueText tolerates both forms the service emits: a bare string and
// an object wrapping one.
type clueText string

func (c *clueText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = clueText(s)
		return nil
	}
	var obj struct {
		Clue string `json:"clue"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = clueText(obj.Clue)
	return nil
}

type questionResponse struct {
	ID      string   `json:"id"`
	Clue    clueText `json:"clue"`
	Options []struct {
		ID      string `json:"id"`
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"options"`
	TargetCityID string `json:"targetCityId"`
}

// GetRandomQuestion fetches the next question for the session.
func (c *QuestionClient) GetRandomQuestion(ctx context.Context, sessionID string) (quiz.QuestionPayload, error) {
	if sessionID == "" {
		return quiz.QuestionPayload{}, &quiz.DomainError{Reason: "session id is required"}
	}

	var resp questionResponse
	if err := c.doJSON(ctx, http.MethodGet, "/random/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return quiz.QuestionPayload{}, err
	}

	payload := quiz.QuestionPayload{
		ID:           resp.ID,
		Clue:         string(resp.Clue),
		TargetCityID: resp.TargetCityID,
	}
	for _, o := range resp.Options {
		payload.Options = append(payload.Options, quiz.CityOption{
			ID:      o.ID,
			City:    o.City,
			Country: o.Country,
		})
	}
	return payload, nil
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

// SubmitAnswer sends the chosen option for grading.
func (c *QuestionClient) SubmitAnswer(ctx context.Context, sessionID, questionID, optionID string) (quiz.SubmitPayload, error) {
	req := submitRequest{
		SessionID:  sessionID,
		QuestionID: questionID,
		OptionID:   optionID,
	}
	var resp submitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/submit", req, &resp); err != nil {
		return quiz.SubmitPayload{}, err
	}
	return quiz.SubmitPayload{
		IsCorrect: resp.IsCorrect,
		Score:     resp.Score,
		FunFact:   resp.FunFact,
		Trivia:    resp.Trivia,
	}, nil
}
