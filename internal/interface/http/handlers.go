// Package http implements the REST API for the progress engine.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/command"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/query"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/progress"
	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "Learner Progress API",
		"version":     "v1",
		"description": "REST API for learner progress, streaks, checkpoints and diagnostics",
		"endpoints": map[string]string{
			"health":      "/health",
			"activities":  "/api/v1/activities",
			"checkpoints": "/api/v1/checkpoints/submissions",
			"diagnostics": "/api/v1/diagnostics/submissions",
			"progress":    "/api/v1/learners/{userID}/roadmaps/{roadmapID}/progress",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	// Default health response
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": "v1",
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// activityRequest is the wire shape of one activity event.
type activityRequest struct {
	UserID           string    `json:"user_id"`
	RoadmapID        string    `json:"roadmap_id"`
	Kind             string    `json:"kind"`
	StepID           string    `json:"step_id,omitempty"`
	XPEarned         int       `json:"xp_earned,omitempty"`
	TestScore        *float64  `json:"test_score,omitempty"`
	BadgeEarned      string    `json:"badge_earned,omitempty"`
	TimeSpentMinutes int       `json:"time_spent_minutes,omitempty"`
	OccurredAt       time.Time `json:"occurred_at,omitempty"`
}

func (req activityRequest) toCommand(correlationID string) command.RecordActivityCommand {
	return command.RecordActivityCommand{
		UserID:           req.UserID,
		RoadmapID:        req.RoadmapID,
		Kind:             progress.ActivityKind(req.Kind),
		StepID:           req.StepID,
		XPEarned:         req.XPEarned,
		TestScore:        req.TestScore,
		BadgeEarned:      req.BadgeEarned,
		TimeSpentMinutes: req.TimeSpentMinutes,
		OccurredAt:       req.OccurredAt,
		CorrelationID:    correlationID,
	}
}

// handleRecordActivity handles POST /api/v1/activities
func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	if s.deps.RecordActivityHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Activity handler not configured")
		return
	}

	var req activityRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RecordActivityHandler.Handle(r.Context(), req.toCommand(getRequestID(r.Context())))
	if err != nil {
		s.writeCommandError(w, r, err, "record_activity")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleRecordActivityBatch handles POST /api/v1/activities/batch
func (s *Server) handleRecordActivityBatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.BatchActivityHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Batch activity handler not configured")
		return
	}

	var req struct {
		Activities []activityRequest `json:"activities"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Activities) == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "activities must not be empty")
		return
	}

	cmd := command.RecordBatchActivityCommand{
		CorrelationID: getRequestID(r.Context()),
		Activities:    make([]command.RecordActivityCommand, 0, len(req.Activities)),
	}
	for _, a := range req.Activities {
		cmd.Activities = append(cmd.Activities, a.toCommand(cmd.CorrelationID))
	}

	result, err := s.deps.BatchActivityHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err, "record_activity_batch")
		return
	}

	// Partial failure is still a 200; the body carries the per-item errors.
	batchErrors := make(map[string]string, len(result.Errors))
	for key, itemErr := range result.Errors {
		batchErrors[key] = itemErr.Error()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_count":   result.TotalCount,
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
		"results":       result.Results,
		"errors":        batchErrors,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CHECKPOINT HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// checkpointRequest is the wire shape of a checkpoint submission.
type checkpointRequest struct {
	UserID                  string            `json:"user_id"`
	RoadmapID               string            `json:"roadmap_id"`
	StepID                  string            `json:"step_id,omitempty"`
	TestID                  string            `json:"test_id"`
	Answers                 map[string]int    `json:"answers,omitempty"`
	CaseVerdicts            map[string][]bool `json:"case_verdicts,omitempty"`
	CompletedRequirementIDs []string          `json:"completed_requirement_ids,omitempty"`
	DeliverableURL          string            `json:"deliverable_url,omitempty"`
	ArtifactRef             string            `json:"artifact_ref,omitempty"`
	TimeSpentMinutes        int               `json:"time_spent_minutes,omitempty"`
	OccurredAt              time.Time         `json:"occurred_at,omitempty"`
}

// handleSubmitCheckpoint handles POST /api/v1/checkpoints/submissions
func (s *Server) handleSubmitCheckpoint(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitCheckpointHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Checkpoint handler not configured")
		return
	}

	var req checkpointRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.SubmitCheckpointCommand{
		UserID:                  req.UserID,
		RoadmapID:               req.RoadmapID,
		StepID:                  req.StepID,
		TestID:                  req.TestID,
		Answers:                 req.Answers,
		CaseVerdicts:            req.CaseVerdicts,
		CompletedRequirementIDs: req.CompletedRequirementIDs,
		DeliverableURL:          req.DeliverableURL,
		ArtifactRef:             req.ArtifactRef,
		TimeSpentMinutes:        req.TimeSpentMinutes,
		OccurredAt:              req.OccurredAt,
		CorrelationID:           getRequestID(r.Context()),
	}

	result, err := s.deps.SubmitCheckpointHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err, "submit_checkpoint")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIAGNOSTIC HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// diagnosticRequest is the wire shape of a diagnostic submission.
type diagnosticRequest struct {
	UserID           string         `json:"user_id"`
	DiagnosticID     string         `json:"diagnostic_id"`
	RoadmapID        string         `json:"roadmap_id,omitempty"`
	Answers          map[string]int `json:"answers"`
	TimeSpentMinutes int            `json:"time_spent_minutes,omitempty"`
	OccurredAt       time.Time      `json:"occurred_at,omitempty"`
}

// handleSubmitDiagnostic handles POST /api/v1/diagnostics/submissions
func (s *Server) handleSubmitDiagnostic(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitDiagnosticHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Diagnostic handler not configured")
		return
	}

	var req diagnosticRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd := command.SubmitDiagnosticCommand{
		UserID:           req.UserID,
		DiagnosticID:     req.DiagnosticID,
		RoadmapID:        req.RoadmapID,
		Answers:          req.Answers,
		TimeSpentMinutes: req.TimeSpentMinutes,
		OccurredAt:       req.OccurredAt,
		CorrelationID:    getRequestID(r.Context()),
	}

	result, err := s.deps.SubmitDiagnosticHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err, "submit_diagnostic")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetProgress handles GET /api/v1/learners/{userID}/roadmaps/{roadmapID}/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	q := query.GetProgressQuery{
		UserID:    r.PathValue("userID"),
		RoadmapID: r.PathValue("roadmapID"),
	}

	result, err := s.deps.GetProgressHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, err, "get_progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetHeatmap handles GET /api/v1/learners/{userID}/roadmaps/{roadmapID}/heatmap
func (s *Server) handleGetHeatmap(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetHeatmapHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Heatmap handler not configured")
		return
	}

	q := query.GetHeatmapQuery{
		UserID:     r.PathValue("userID"),
		RoadmapID:  r.PathValue("roadmapID"),
		WindowDays: getQueryParamInt(r, "window_days", 0),
	}

	result, err := s.deps.GetHeatmapHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, err, "get_heatmap")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetRecommendedRoadmaps handles GET /api/v1/learners/{userID}/roadmaps/recommended
func (s *Server) handleGetRecommendedRoadmaps(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetRecommendedRoadmapsHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Recommendation handler not configured")
		return
	}

	q := query.GetRecommendedRoadmapsQuery{UserID: r.PathValue("userID")}

	result, err := s.deps.GetRecommendedRoadmapsHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeCommandError(w, r, err, "get_recommended_roadmaps")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleResetProgress handles DELETE /api/v1/learners/{userID}/roadmaps/{roadmapID}/progress
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.ResetProgressHandler == nil {
		writeJSONError(w, http.StatusNotImplemented, "not_implemented", "Reset handler not configured")
		return
	}

	cmd := command.ResetProgressCommand{
		UserID:        r.PathValue("userID"),
		RoadmapID:     r.PathValue("roadmapID"),
		CorrelationID: getRequestID(r.Context()),
	}

	result, err := s.deps.ResetProgressHandler.Handle(r.Context(), cmd)
	if err != nil {
		s.writeCommandError(w, r, err, "reset_progress")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleActivityWebhook handles POST /webhook/activity
func (s *Server) handleActivityWebhook(w http.ResponseWriter, r *http.Request) {
	s.processActivityWebhook(w, r, "")
}

// handleActivityWebhookWithToken handles POST /webhook/activity/{token}
func (s *Server) handleActivityWebhookWithToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	s.processActivityWebhook(w, r, token)
}

// processActivityWebhook accepts activity pushes from the learning platform.
func (s *Server) processActivityWebhook(w http.ResponseWriter, r *http.Request, token string) {
	if s.config.WebhookSecret != "" && token != s.config.WebhookSecret {
		s.logger.Warn("invalid webhook token", logger.String("ip", getClientIP(r)))
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid webhook token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.logger.Error("failed to read webhook body", logger.Err(err))
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to read request body")
		return
	}
	defer r.Body.Close()

	if s.deps.WebhookHandler != nil {
		if err := s.deps.WebhookHandler.HandleActivityPush(r.Context(), body); err != nil {
			s.logger.Error("failed to handle activity push", logger.Err(err))
			// Still acknowledge so the platform does not retry a poison message.
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads and decodes a JSON request body, writing the error
// response itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dest); err != nil {
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload", err.Error())
		return false
	}
	return true
}

// writeCommandError maps application errors onto HTTP status codes.
func (s *Server) writeCommandError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	switch {
	case shared.IsValidation(err):
		writeJSONErrorWithDetails(w, http.StatusBadRequest, "validation_failed", "Request failed validation", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrKeyLocked):
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusConflict, "key_locked", "Another update for this learner is in flight")
	case errors.Is(err, shared.ErrOptimisticLock):
		writeJSONError(w, http.StatusConflict, "conflict", "Progress record changed concurrently, retry the request")
	default:
		s.logger.Error("command failed",
			logger.Operation(operation),
			logger.Err(err),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
