package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	turnerrors "venture-canvas/services/turn-api/internal/domain/errors"
	"venture-canvas/services/turn-api/internal/domain/transcript"
	"venture-canvas/services/turn-api/internal/domain/turn"
	"venture-canvas/services/turn-api/internal/infrastructure/auth"
	"venture-canvas/services/turn-api/internal/infrastructure/metrics"
	"venture-canvas/services/turn-api/internal/infrastructure/observability"
	"venture-canvas/services/turn-api/internal/infrastructure/queue"
	"venture-canvas/services/turn-api/internal/interfaces/httpserver/dto"
)

// TurnHandler exposes HTTP entrypoints for turn execution and transcripts.
type TurnHandler struct {
	service  turn.Service
	jobQueue queue.JobQueue
	log      zerolog.Logger
}

// NewTurnHandler constructs the handler.
func NewTurnHandler(service turn.Service, jobQueue queue.JobQueue, log zerolog.Logger) *TurnHandler {
	return &TurnHandler{
		service:  service,
		jobQueue: jobQueue,
		log:      log.With().Str("handler", "turn").Logger(),
	}
}

// Execute handles POST /v1/projects/:project_id/stages/:stage/turn
// @Summary Execute a turn
// @Description Runs one user turn against the assistant, executing requested tool calls. With background=true the turn is enqueued and acknowledged immediately.
// @Tags Turns
// @Accept json
// @Produce json
// @Param project_id path string true "Project ID"
// @Param stage path int true "Stage number (1-6)"
// @Param request body dto.ExecuteTurnRequest true "Turn request"
// @Success 200 {object} dto.TurnPayload
// @Success 202 {object} dto.JobAcceptedPayload
// @Failure 400 {object} dto.ErrorPayload
// @Failure 502 {object} dto.ErrorPayload
// @Failure 504 {object} dto.ErrorPayload
// @Router /v1/projects/{project_id}/stages/{stage}/turn [post]
func (h *TurnHandler) Execute(c *gin.Context) {
	projectID, stage, ok := h.pairParams(c)
	if !ok {
		return
	}

	var req dto.ExecuteTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, turnerrors.Wrap(err, turnerrors.KindInvalidInput, "decode request body"))
		return
	}

	callerID := c.GetString(auth.CallerIDKey)

	if req.Background {
		h.enqueueTurn(c, projectID, stage, callerID, req)
		return
	}

	ctx, span := observability.StartTurnSpan(c.Request.Context(), projectID, stage)
	defer span.End()

	started := time.Now()
	result, err := h.service.ExecuteTurn(ctx, turn.Params{
		ProjectID:     projectID,
		Stage:         stage,
		Text:          req.Text,
		ContextHandle: req.ContextHandle,
		CallerID:      callerID,
	})
	if err != nil {
		observability.RecordError(span, err)
		metrics.RecordTurn(strconv.Itoa(stage), errorOutcome(err), time.Since(started).Seconds())
		respondError(c, err)
		return
	}

	metrics.RecordTurn(strconv.Itoa(stage), "completed", time.Since(started).Seconds())
	if len(result.ToolCalls) > 0 {
		observability.AddToolBatchEvent(span, len(result.ToolCalls))
		for _, call := range result.ToolCalls {
			status := "ok"
			if call.Error != "" {
				status = "error"
			}
			metrics.RecordToolCall(call.Name, status, call.Duration.Seconds())
		}
	}
	c.JSON(http.StatusOK, dto.FromTurnResult(result))
}

// History handles GET /v1/projects/:project_id/stages/:stage/history
// @Summary Get the stored transcript
// @Description Returns the transcript for a project stage. A pair without history yields an empty transcript, not a 404.
// @Tags Turns
// @Produce json
// @Param project_id path string true "Project ID"
// @Param stage path int true "Stage number (1-6)"
// @Success 200 {object} dto.HistoryPayload
// @Failure 400 {object} dto.ErrorPayload
// @Router /v1/projects/{project_id}/stages/{stage}/history [get]
func (h *TurnHandler) History(c *gin.Context) {
	projectID, stage, ok := h.pairParams(c)
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), projectID, stage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromHistory(history))
}

// ClearHistory handles DELETE /v1/projects/:project_id/stages/:stage/history
// @Summary Clear the stored transcript
// @Description Deletes the transcript for a project stage and reports how many entries were removed.
// @Tags Turns
// @Produce json
// @Param project_id path string true "Project ID"
// @Param stage path int true "Stage number (1-6)"
// @Success 200 {object} dto.ClearHistoryPayload
// @Failure 400 {object} dto.ErrorPayload
// @Router /v1/projects/{project_id}/stages/{stage}/history [delete]
func (h *TurnHandler) ClearHistory(c *gin.Context) {
	projectID, stage, ok := h.pairParams(c)
	if !ok {
		return
	}

	deleted, err := h.service.ClearHistory(c.Request.Context(), projectID, stage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClearHistoryPayload{DeletedCount: deleted})
}

// GetJob handles GET /v1/turn-jobs/:job_id
// @Summary Get a background turn job
// @Tags Turns
// @Produce json
// @Param job_id path string true "Job ID"
// @Success 200 {object} dto.JobPayload
// @Failure 404 {object} dto.ErrorPayload
// @Router /v1/turn-jobs/{job_id} [get]
func (h *TurnHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.jobQueue.GetJob(c.Request.Context(), jobID)
	if err != nil {
		respondError(c, turnerrors.Wrap(err, turnerrors.KindStorage, "fetch turn job"))
		return
	}
	if job == nil {
		respondError(c, turnerrors.Newf(turnerrors.KindNotFound, "turn job not found: %s", jobID))
		return
	}
	c.JSON(http.StatusOK, dto.FromJobStatus(job))
}

func (h *TurnHandler) enqueueTurn(c *gin.Context, projectID string, stage int, callerID string, req dto.ExecuteTurnRequest) {
	if req.Text == "" {
		respondError(c, turnerrors.New(turnerrors.KindInvalidInput, "turn text must not be empty"))
		return
	}

	params, err := json.Marshal(map[string]interface{}{
		"text":           req.Text,
		"context_handle": req.ContextHandle,
		"metadata":       req.Metadata,
	})
	if err != nil {
		respondError(c, turnerrors.Wrap(err, turnerrors.KindInvalidInput, "encode job params"))
		return
	}

	job := &queue.Job{
		PublicID:  fmt.Sprintf("job_%s", uuid.NewString()),
		ProjectID: projectID,
		Stage:     stage,
		CallerID:  callerID,
		Params:    params,
		QueuedAt:  time.Now(),
	}
	if err := h.jobQueue.Enqueue(c.Request.Context(), job); err != nil {
		respondError(c, turnerrors.Wrap(err, turnerrors.KindStorage, "enqueue turn job"))
		return
	}

	h.log.Info().Str("job_id", job.PublicID).Str("project_id", projectID).Int("stage", stage).Msg("background turn enqueued")
	c.JSON(http.StatusAccepted, dto.JobAcceptedPayload{ID: job.PublicID, Status: "queued"})
}

// pairParams extracts and validates the (project, stage) pair from the path.
func (h *TurnHandler) pairParams(c *gin.Context) (string, int, bool) {
	projectID := c.Param("project_id")
	stage, err := strconv.Atoi(c.Param("stage"))
	if err != nil || !transcript.ValidStage(stage) {
		respondError(c, turnerrors.Newf(turnerrors.KindInvalidStage,
			"stage must be an integer between %d and %d", transcript.MinStage, transcript.MaxStage))
		return "", 0, false
	}
	return projectID, stage, true
}

func respondError(c *gin.Context, err error) {
	kindLabel := "internal_error"
	if kind, ok := turnerrors.KindOf(err); ok {
		kindLabel = string(kind)
	}
	c.JSON(turnerrors.HTTPStatus(err), dto.ErrorPayload{
		Error: dto.ErrorDetail{Kind: kindLabel, Message: err.Error()},
	})
}

func errorOutcome(err error) string {
	if kind, ok := turnerrors.KindOf(err); ok {
		return string(kind)
	}
	return "error"
}
