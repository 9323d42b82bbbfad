// Package pipeline drives documents through the extract, summarize, and
// rules stages.
//
// The Orchestrator owns the stage state machine: it acquires a stage lease,
// executes the stage against the extract registry or the AI provider
// registry, and commits the result atomically through the pipeline store.
// Transient failures are retried with exponential backoff up to a configured
// attempt budget; permanent failures terminate the document.
//
// The Dispatcher runs orchestration concurrently on a bounded worker pool
// and keeps a time-ordered schedule for retries, so a flaky provider delays
// only its own document.
package pipeline
