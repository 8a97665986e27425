package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goalbreaker/goalbreaker-api/internal/api/shared"
	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/service"
)

// getPathID extracts a positive integer ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "has invalid format", service.ErrInvalidGoalID)
	}

	return id, nil
}

// decodeGoalRequest reads and validates a GoalRequest body. On failure it
// writes the error response and returns false.
func decodeGoalRequest(w http.ResponseWriter, r *http.Request) (GoalRequest, bool) {
	var req GoalRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, msgInvalidRequest, err,
			shared.WithElevatedLogLevel())
		return req, false
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err,
			shared.WithElevatedLogLevel())
		return req, false
	}

	return req, true
}
