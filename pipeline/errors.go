package pipeline

import "errors"

var (
	// ErrStoreRequired is returned when a pipeline store is not provided.
	ErrStoreRequired = errors.New("pipeline store required")

	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrExtractorsRequired is returned when an extractor registry is not provided.
	ErrExtractorsRequired = errors.New("extractor registry required")

	// ErrProvidersRequired is returned when a provider registry is not provided.
	ErrProvidersRequired = errors.New("provider registry required")

	// ErrOrchestratorRequired is returned when an orchestrator is not provided.
	ErrOrchestratorRequired = errors.New("orchestrator required")

	// ErrDispatcherClosed is returned when enqueueing on a closed dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)
