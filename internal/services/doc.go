// Package services defines shared utilities consumed by the workflow
// orchestrator and the pipeline components.
//
// Key responsibilities:
//   - Context helpers that stamp session identifiers, run directories, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (caption format, storage, render, encode) so the orchestrator can pick
//     the right recovery path and user message.
//
// Use these helpers when wiring new workflow logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
