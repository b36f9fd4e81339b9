package webhook

import "errors"

var (
	// ErrBadSignature is a hard rejection: the payload was not produced by
	// the provider (or the endpoint is misconfigured) and nothing was mutated.
	ErrBadSignature = errors.New("webhook signature verification failed")

	// ErrNotConfigured reports a missing signing secret.
	ErrNotConfigured = errors.New("webhook signing secret is not configured")
)
