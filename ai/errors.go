package ai

import "errors"

var (
	// ErrNoProviders indicates a registry with nothing registered.
	ErrNoProviders = errors.New("no providers registered")

	// ErrEmptyText indicates a summarize or extract call with no input.
	ErrEmptyText = errors.New("empty input text")

	// ErrMalformedResponse indicates the model's output could not be parsed
	// even after repair and retries.
	ErrMalformedResponse = errors.New("malformed model response")
)
