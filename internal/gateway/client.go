// Package gateway implements the HTTP clients for the question and
// challenge services. Failures map onto the domain error taxonomy:
// 401 becomes an AuthError, any other non-2xx or transport failure a
// NetworkError, and an undecodable success body a ValidationError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/globetrotter/internal/quiz"
)

// TokenSource supplies the bearer token attached to every request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed token. An empty token sends
// no Authorization header.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) {
	return string(t), nil
}

type client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

func newClient(baseURL string, tokens TokenSource, httpc *http.Client) client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
		tokens:  tokens,
	}
}

func (c client) doJSON(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return &quiz.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return &quiz.AuthError{Err: err}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &quiz.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return &quiz.AuthError{Err: fmt.Errorf("%s: %s", op, serverMessage(resp))}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &quiz.NetworkError{Op: op, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, serverMessage(resp))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &quiz.ValidationError{Reason: fmt.Sprintf("%s: undecodable response: %v", op, err)}
	}
	return nil
}

// serverMessage extracts the {"error": "..."} body the services return,
// falling back to the raw body.
func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(data)
}
