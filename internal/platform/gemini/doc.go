// Package gemini adapts Google's Gemini API to the generation.Completer
// interface.
//
// The adapter performs exactly one GenerateContent call per Complete call and
// returns the concatenated candidate text. It does not retry, parse or
// classify anything: upstream failures are returned as-is so the invoker in
// package generation can classify them from their text. genai.APIError
// renders as "Error <code>, Message: ..., Status: ...", which carries the
// status markers the classifier looks for.
package gemini
