// Package service contains the goal use cases. It coordinates the
// breakdown generator (internal/generation) with goal persistence
// (internal/store) and translates their errors into service-level errors.
//
// The service layer depends on interfaces only; concrete stores and
// generators are injected by cmd/server.
package service
