// Package push abstracts the external push-messaging capability: send a
// notification to a set of device tokens, get back a per-token outcome.
package push

import "context"

// TokenResult is the outcome of one token in a multicast send.
type TokenResult struct {
	Token     string `json:"token"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Result aggregates a multicast send.
type Result struct {
	SuccessCount int           `json:"success"`
	FailureCount int           `json:"failure"`
	Responses    []TokenResult `json:"results"`
}

// Sender sends one notification to many device tokens in a single call.
// Implementations are stateless from the caller's perspective; a Sender is
// constructed once and injected, never reached through a global.
type Sender interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (Result, error)
}
