package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/playperu/globetrotter/internal/quiz"
)

// ChallengeClient talks to the challenge service.
type ChallengeClient struct {
	client
}

// NewChallengeClient builds a client rooted at baseURL, e.g.
// "http://localhost:5000/challenge".
func NewChallengeClient(baseURL string, tokens TokenSource, httpc *http.Client) *ChallengeClient {
	return &ChallengeClient{client: newClient(baseURL, tokens, httpc)}
}

type createChallengeRequest struct {
	SessionID string `json:"sessionId"`
}

type createChallengeResponse struct {
	ID         string `json:"id"`
	InviteLink string `json:"inviteLink"`
}

// CreateChallenge makes the session acceptable by other players.
func (c *ChallengeClient) CreateChallenge(ctx context.Context, sessionID string) (quiz.InvitePayload, error) {
	var resp createChallengeResponse
	err := c.doJSON(ctx, http.MethodPost, "/create", createChallengeRequest{SessionID: sessionID}, &resp)
	if err != nil {
		return quiz.InvitePayload{}, err
	}
	return quiz.InvitePayload{
		ChallengeID: resp.ID,
		InviteLink:  resp.InviteLink,
	}, nil
}

type challengeResponse struct {
	ID                string `json:"id"`
	InviterScore      int    `json:"inviterScore"`
	IsOwnChallenge    bool   `json:"isOwnChallenge"`
	IsAlreadyAccepted bool   `json:"isAlreadyAccepted"`
}

// GetChallengeByLink fetches challenge metadata for an invite link.
func (c *ChallengeClient) GetChallengeByLink(ctx context.Context, link string) (quiz.ChallengePayload, error) {
	var resp challengeResponse
	if err := c.doJSON(ctx, http.MethodGet, "/"+url.PathEscape(link), nil, &resp); err != nil {
		return quiz.ChallengePayload{}, err
	}
	return quiz.ChallengePayload{
		ID:                resp.ID,
		InviterScore:      resp.InviterScore,
		IsOwnChallenge:    resp.IsOwnChallenge,
		IsAlreadyAccepted: resp.IsAlreadyAccepted,
	}, nil
}

type acceptChallengeResponse struct {
	SessionID string `json:"sessionId"`
}

// AcceptChallenge accepts the invite and returns the new session id.
func (c *ChallengeClient) AcceptChallenge(ctx context.Context, link string) (string, error) {
	var resp acceptChallengeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/"+url.PathEscape(link)+"/accept", nil, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", &quiz.ValidationError{Reason: "accept response missing session id"}
	}
	return resp.SessionID, nil
}
