// Package mindtypes defines inference-related types and interfaces for MindMend.
// This file contains the inference outcome variant and the collaborator interfaces
// consumed by the history manager.
package mindtypes

import "context"

// InferenceOutcome is the result of a single inference round trip.
// It is either a success carrying a reply (possibly empty) or a failure carrying a reason.
type InferenceOutcome struct {
	ok     bool
	reply  string
	reason string
}

// Success builds a successful outcome.
func Success(reply string) InferenceOutcome {
	return InferenceOutcome{ok: true, reply: reply}
}

// Failure builds a failed outcome with a human-readable reason.
func Failure(reason string) InferenceOutcome {
	return InferenceOutcome{ok: false, reason: reason}
}

// OK reports whether the call succeeded at the transport and status level.
func (o InferenceOutcome) OK() bool {
	return o.ok
}

// Reply returns the reply text of a successful outcome.
func (o InferenceOutcome) Reply() string {
	return o.reply
}

// Reason returns the failure reason of a failed outcome.
func (o InferenceOutcome) Reason() string {
	return o.reason
}

// Inferencer sends a conversation plus a new user message to a remote model.
// Implementations perform exactly one attempt and never return a Go error;
// every problem is encoded as a Failure outcome.
type Inferencer interface {
	Send(ctx context.Context, history Conversation, userText string, allowExtraContext bool) InferenceOutcome

	// ProviderName returns the backend name (e.g., "endpoint", "openai").
	ProviderName() string
}

// TokenProvider exposes the current authentication session.
// It returns false when no session is available; it never initiates a login.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, bool)
}
