package quiz

import "fmt"

// NetworkError wraps a transport failure or a non-2xx gateway response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError marks a malformed or incomplete gateway payload.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// DomainError is a precondition failure detected before any network
// call: answering without an active question, creating a challenge
// without a session, accepting an own or already-accepted challenge.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return e.Reason }

// AuthError is propagated opaquely from the authentication collaborator.
// It causes the session to be abandoned.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
