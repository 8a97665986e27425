// Package generation turns free-text goals into structured breakdowns by
// calling an external AI/LLM service. It owns the request governor that
// guards the costly upstream call, the classifier that sorts upstream
// failures into transient and terminal kinds, and the invoker that retries
// transient failures with linear backoff.
//
// The package does not know which LLM provider is used. Providers implement
// Completer; the Gemini adapter lives in internal/platform/gemini.
//
// Lifecycle: a single Governor is created at process start and shared by
// reference between the Invoker and anything that reports usage. Its state is
// in memory only and resets when the process restarts.
package generation
