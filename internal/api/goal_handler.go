package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goalbreaker/goalbreaker-api/internal/api/shared"
	"github.com/goalbreaker/goalbreaker-api/internal/export"
	"github.com/goalbreaker/goalbreaker-api/internal/platform/logger"
	"github.com/goalbreaker/goalbreaker-api/internal/redact"
	"github.com/goalbreaker/goalbreaker-api/internal/service"
)

// ServiceName is reported by the root endpoint.
const ServiceName = "Smart Goal Breaker API"

// GoalHandler handles goal-related HTTP requests.
type GoalHandler struct {
	goalService service.GoalService
	logger      *slog.Logger
	now         func() time.Time
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService service.GoalService, logger *slog.Logger) *GoalHandler {
	if goalService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("goal service cannot be nil for GoalHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GoalHandler")
	}

	return &GoalHandler{
		goalService: goalService,
		logger:      logger.With(slog.String("component", "goal_handler")),
		now:         time.Now,
	}
}

// Routes registers the root, health and /api/goals endpoints on r.
func (h *GoalHandler) Routes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api/goals", func(r chi.Router) {
		r.Get("/models", h.ListModels)
		r.Get("/rate-limit/status", h.RateLimitStatus)
		r.Get("/export", h.ExportGoals)

		r.Post("/", h.CreateGoal)
		r.Get("/", h.ListGoals)
		r.Delete("/", h.DeleteAllGoals)

		r.Get("/{id}", h.GetGoal)
		r.Put("/{id}", h.UpdateGoal)
		r.Delete("/{id}", h.DeleteGoal)
	})
}

// Root handles GET /.
func (h *GoalHandler) Root(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, RootResponse{Message: ServiceName, Status: "running"})
}

// Health handles GET /health. The database is pinged on every call.
func (h *GoalHandler) Health(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := h.goalService.Health(r.Context()); err != nil {
		log.WarnContext(r.Context(), "health check failed", redact.ErrorAttr(err))
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable,
			HealthResponse{Status: "unhealthy", Database: "disconnected"})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "healthy", Database: "connected"})
}

// ListModels handles GET /api/goals/models.
func (h *GoalHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	list := h.goalService.Models()
	shared.RespondWithJSON(w, r, http.StatusOK, modelsToResponse(list.Models, list.DefaultModel))
}

// RateLimitStatus handles GET /api/goals/rate-limit/status.
func (h *GoalHandler) RateLimitStatus(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, usageToResponse(h.goalService.RateLimitStatus()))
}

// CreateGoal handles POST /api/goals.
func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, ok := decodeGoalRequest(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.CreateGoal(r.Context(), req.Title, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create goal")
		return
	}

	log.InfoContext(r.Context(), "goal created",
		slog.Int64("goal_id", goal.ID),
		slog.Int("complexity_score", goal.ComplexityScore))
	shared.RespondWithJSON(w, r, http.StatusCreated, goalToResponse(goal))
}

// ListGoals handles GET /api/goals.
func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.ListGoals(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list goals")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, goalsToResponse(goals))
}

// GetGoal handles GET /api/goals/{id}.
func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	goal, err := h.goalService.GetGoal(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get goal")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, goalToResponse(goal))
}

// UpdateGoal handles PUT /api/goals/{id}. The breakdown is regenerated.
func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	req, ok := decodeGoalRequest(w, r)
	if !ok {
		return
	}

	goal, err := h.goalService.UpdateGoal(r.Context(), id, req.Title, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update goal")
		return
	}

	log.InfoContext(r.Context(), "goal updated", slog.Int64("goal_id", goal.ID))
	shared.RespondWithJSON(w, r, http.StatusOK, goalToResponse(goal))
}

// DeleteGoal handles DELETE /api/goals/{id}.
func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.goalService.DeleteGoal(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete goal")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Goal deleted successfully"})
}

// DeleteAllGoals handles DELETE /api/goals.
func (h *GoalHandler) DeleteAllGoals(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	n, err := h.goalService.DeleteAllGoals(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete goals")
		return
	}

	log.InfoContext(r.Context(), "all goals deleted", slog.Int64("count", n))
	shared.RespondWithJSON(w, r, http.StatusOK,
		MessageResponse{Message: fmt.Sprintf("Deleted %d goals successfully", n)})
}

// ExportGoals handles GET /api/goals/export?format=json|csv|yaml|markdown.
// The body is rendered in full before any header is written so that a
// failure can still produce an error response.
func (h *GoalHandler) ExportGoals(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	goals, err := h.goalService.ListGoals(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export goals")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, goals); err != nil {
		HandleAPIError(w, r, err, "Failed to export goals")
		return
	}

	filename := export.Filename(format, h.now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).WarnContext(r.Context(),
			"failed to write export body", slog.String("error", err.Error()))
	}
}
